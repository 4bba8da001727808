/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package servicebus measures queue throughput for a managed service bus
// through its metrics REST API.
//
// The platform retains per-queue daily message counts for 30 days. The
// collector reports the maximum daily volume over that retention window,
// so the report's effective duration is one day regardless of how long the
// tool itself ran.
package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
	"github.com/mqmeter/mqmeter/pkg/report"
)

const metricRetention = 30 * 24 * time.Hour

// queueRow is one entry of the paginated queue listing.
type queueRow struct {
	Name string `json:"name"`
}

// metricSeries is the daily incoming-message series for one queue.
type metricSeries struct {
	Value []metricPoint `json:"value"`
}

type metricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int64     `json:"total"`
}

// namespaceInfo describes the namespace for the audit trail.
type namespaceInfo struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// Collector reads queue metrics from the service bus management endpoint.
type Collector struct {
	cfg    config.ServiceBusConfig
	client *fetch.Client
	prefix string
}

// New builds a service bus collector.
func New(cfg config.ServiceBusConfig, client *fetch.Client, prefix string) *Collector {
	return &Collector{cfg: cfg, client: client, prefix: prefix}
}

// ScopeType implements collector.ScopeTyper.
func (c *Collector) ScopeType() string { return "Namespace" }

// EffectiveWindow implements collector.WindowReporter: throughput is the
// maximum single-day volume, so the effective window is one day, not the
// tool run time.
func (c *Collector) EffectiveWindow(collector.Window) time.Duration {
	return 24 * time.Hour
}

// DiscoverQueues pages through the namespace queue listing.
func (c *Collector) DiscoverQueues(ctx context.Context) ([]string, error) {
	listURL := c.endpoint("/queues")
	rows, err := c.client.GetPaged(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}

	var names []string
	for _, row := range rows {
		var q queueRow
		if err := json.Unmarshal(row, &q); err != nil {
			return nil, fmt.Errorf("decode queue row: %w", err)
		}
		if c.prefix != "" && !strings.HasPrefix(q.Name, c.prefix) {
			continue
		}
		names = append(names, q.Name)
	}
	return names, nil
}

// MeasureThroughput queries the queue's daily incoming-message series over
// the retention window and returns the maximum daily total. A queue with
// no series is send-only from the metric system's point of view.
func (c *Collector) MeasureThroughput(ctx context.Context, queue string, w collector.Window) (report.QueueThroughputSample, error) {
	from := w.End.Add(-metricRetention)
	metricURL := c.endpoint(fmt.Sprintf("/queues/%s/metrics/incoming-messages?interval=P1D&from=%d&to=%d",
		queue, from.Unix(), w.End.Unix()))

	body, err := c.client.Get(ctx, metricURL)
	if err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("queue %q metrics: %w", queue, err)
	}

	var series metricSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("decode metrics for %q: %w", queue, err)
	}

	if len(series.Value) == 0 {
		sample := report.Unmeasured(queue)
		sample.Scope = c.cfg.Namespace
		return sample, nil
	}

	var peak int64
	for _, p := range series.Value {
		if p.Total > peak {
			peak = p.Total
		}
	}

	sample := report.Measured(queue, peak)
	sample.Scope = c.cfg.Namespace
	return sample, nil
}

// DescribeMethod reports the namespace identity and measurement mode.
func (c *Collector) DescribeMethod(ctx context.Context) (string, error) {
	body, err := c.client.Get(ctx, c.endpoint(""))
	if err != nil {
		return "", fmt.Errorf("read namespace info: %w", err)
	}
	var info namespaceInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decode namespace info: %w", err)
	}
	return fmt.Sprintf("ServiceBus namespace %s (%s), 30-day peak daily volume", info.Name, info.SKU), nil
}

func (c *Collector) endpoint(suffix string) string {
	return strings.TrimRight(c.cfg.ManagementURL, "/") + "/namespaces/" + c.cfg.Namespace + suffix
}
