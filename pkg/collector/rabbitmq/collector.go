/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package rabbitmq measures queue throughput through the RabbitMQ
// management API.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"log/slog"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
	"github.com/mqmeter/mqmeter/pkg/report"
)

// overview is the subset of /api/overview the collector reads.
type overview struct {
	RabbitMQVersion   string `json:"rabbitmq_version"`
	ManagementVersion string `json:"management_version"`
	ClusterName       string `json:"cluster_name"`
	RatesMode         string `json:"rates_mode"`
}

// messageStats carries the cumulative consumer-side counters for a queue.
// Absent entirely on queues that have never had a delivery (send-only).
type messageStats struct {
	Ack int64 `json:"ack"`
}

// queueInfo is one row of /api/queues or /api/queues/{vhost}/{name}.
type queueInfo struct {
	Name         string        `json:"name"`
	Vhost        string        `json:"vhost"`
	MessageStats *messageStats `json:"message_stats"`
}

// Collector measures throughput as the delta of each queue's cumulative
// ack counter between discovery and the end of the sampling window.
type Collector struct {
	cfg    config.RabbitMQConfig
	client *fetch.Client
	prefix string

	mu       sync.Mutex
	overview *overview
	// Cumulative ack counters captured at discovery. A nil entry means
	// the queue had no consumer-side stats at baseline time.
	baseline map[string]*int64
	// Queue name -> vhost, needed to address single-queue endpoints.
	vhosts map[string]string
}

// New builds a RabbitMQ collector. prefix optionally restricts discovery
// to queue names with that prefix.
func New(cfg config.RabbitMQConfig, client *fetch.Client, prefix string) *Collector {
	return &Collector{
		cfg:      cfg,
		client:   client,
		prefix:   prefix,
		baseline: make(map[string]*int64),
		vhosts:   make(map[string]string),
	}
}

// ScopeType implements collector.ScopeTyper.
func (c *Collector) ScopeType() string { return "VirtualHost" }

// DiscoverQueues pages through /api/queues, records baseline ack counters
// and returns the queue names in management-API order. A cluster with
// statistics collection disabled fails the run: every sample would be
// NoData and the report would be meaningless.
func (c *Collector) DiscoverQueues(ctx context.Context) ([]string, error) {
	ov, err := c.getOverview(ctx)
	if err != nil {
		return nil, err
	}
	if ov.RatesMode == "none" {
		return nil, collector.NewEnvironmentError(
			"management statistics are disabled on the broker (rates_mode: none)",
			"Set management.rates_mode to basic or detailed in rabbitmq.conf and restart the cluster, then re-run.",
		)
	}

	listURL := fmt.Sprintf("%s/api/queues?page_size=%d", strings.TrimRight(c.cfg.ManagementURL, "/"), c.cfg.PageSize)
	rows, err := c.client.GetPaged(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	for _, row := range rows {
		var q queueInfo
		if err := json.Unmarshal(row, &q); err != nil {
			return nil, fmt.Errorf("decode queue row: %w", err)
		}
		if c.prefix != "" && !strings.HasPrefix(q.Name, c.prefix) {
			continue
		}
		names = append(names, q.Name)
		c.vhosts[q.Name] = q.Vhost
		if q.MessageStats != nil {
			ack := q.MessageStats.Ack
			c.baseline[q.Name] = &ack
		} else {
			c.baseline[q.Name] = nil
		}
	}

	slog.Debug("rabbitmq discovery complete", "queues", len(names))
	return names, nil
}

// MeasureThroughput re-reads one queue's ack counter and subtracts the
// baseline. A queue without consumer-side stats at both ends of the window
// is send-only or unused and yields a NoDataOrSendOnly sample.
func (c *Collector) MeasureThroughput(ctx context.Context, queue string, _ collector.Window) (report.QueueThroughputSample, error) {
	c.mu.Lock()
	vhost, known := c.vhosts[queue]
	base := c.baseline[queue]
	c.mu.Unlock()
	if !known {
		return report.QueueThroughputSample{}, fmt.Errorf("queue %q was not discovered", queue)
	}

	queueURL := fmt.Sprintf("%s/api/queues/%s/%s",
		strings.TrimRight(c.cfg.ManagementURL, "/"),
		url.PathEscape(vhost),
		url.PathEscape(queue),
	)
	body, err := c.client.Get(ctx, queueURL)
	if err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("read queue %q: %w", queue, err)
	}

	var q queueInfo
	if err := json.Unmarshal(body, &q); err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("decode queue %q: %w", queue, err)
	}

	if q.MessageStats == nil {
		sample := report.Unmeasured(queue)
		sample.Scope = vhost
		return sample, nil
	}

	delta := q.MessageStats.Ack
	if base != nil {
		delta -= *base
	}
	if delta < 0 {
		// Counter reset (broker restart mid-window). Better a
		// conservative number than a negative one.
		delta = 0
	}

	sample := report.Measured(queue, delta)
	sample.Scope = vhost
	return sample, nil
}

// DescribeMethod reports broker, management and cluster identity.
func (c *Collector) DescribeMethod(ctx context.Context) (string, error) {
	ov, err := c.getOverview(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RabbitMQ v%s, Mgmt v%s, Cluster %s",
		ov.RabbitMQVersion, ov.ManagementVersion, ov.ClusterName), nil
}

func (c *Collector) getOverview(ctx context.Context) (*overview, error) {
	c.mu.Lock()
	cached := c.overview
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	body, err := c.client.Get(ctx, strings.TrimRight(c.cfg.ManagementURL, "/")+"/api/overview")
	if err != nil {
		return nil, fmt.Errorf("read broker overview: %w", err)
	}
	var ov overview
	if err := json.Unmarshal(body, &ov); err != nil {
		return nil, fmt.Errorf("decode broker overview: %w", err)
	}

	c.mu.Lock()
	c.overview = &ov
	c.mu.Unlock()
	return &ov, nil
}
