/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package monitoring measures queue throughput through a monitoring
// platform's query API: the platform already aggregates per-queue
// processed counts, so one query per queue covers the whole window.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
	"github.com/mqmeter/mqmeter/pkg/report"
)

type queueRow struct {
	Name string `json:"name"`
}

// queryResult is the platform's answer to a processed-count query.
// Processed is nullable: the platform distinguishes "no data points in
// range" from a measured zero, and so do we.
type queryResult struct {
	Results []struct {
		Processed *int64 `json:"processed"`
	} `json:"results"`
}

type platformStatus struct {
	Platform string `json:"platform"`
	Version  string `json:"version"`
}

// Collector queries a monitoring platform account.
type Collector struct {
	cfg    config.MonitoringConfig
	client *fetch.Client
	prefix string
}

// New builds a monitoring platform collector.
func New(cfg config.MonitoringConfig, client *fetch.Client, prefix string) *Collector {
	return &Collector{cfg: cfg, client: client, prefix: prefix}
}

// ScopeType implements collector.ScopeTyper.
func (c *Collector) ScopeType() string { return "Account" }

// DiscoverQueues pages through the account's known queues.
func (c *Collector) DiscoverQueues(ctx context.Context) ([]string, error) {
	rows, err := c.client.GetPaged(ctx, c.endpoint("/queues"))
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

// MeasureThroughput asks the platform for the queue's processed count over
// the window. A null or absent result means the platform holds no data for
// that queue in the range.
func (c *Collector) MeasureThroughput(ctx context.Context, queue string, w collector.Window) (report.QueueThroughputSample, error) {
	queryURL := c.endpoint(fmt.Sprintf("/query?queue=%s&from=%d&to=%d",
		url.QueryEscape(queue), w.Start.Unix(), w.End.Unix()))

	body, err := c.client.Get(ctx, queryURL)
	if err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("query queue %q: %w", queue, err)
	}

	var result queryResult
	if err := json.Unmarshal(body, &result); err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("decode query result for %q: %w", queue, err)
	}

	if len(result.Results) == 0 || result.Results[0].Processed == nil {
		sample := report.Unmeasured(queue)
		sample.Scope = c.cfg.AccountID
		return sample, nil
	}

	sample := report.Measured(queue, *result.Results[0].Processed)
	sample.Scope = c.cfg.AccountID
	return sample, nil
}

// DescribeMethod reports the platform identity.
func (c *Collector) DescribeMethod(ctx context.Context) (string, error) {
	body, err := c.client.Get(ctx, c.endpoint("/status"))
	if err != nil {
		return "", fmt.Errorf("read platform status: %w", err)
	}
	var status platformStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("decode platform status: %w", err)
	}
	return fmt.Sprintf("%s v%s, account %s", status.Platform, status.Version, c.cfg.AccountID), nil
}

func (c *Collector) endpoint(suffix string) string {
	return strings.TrimRight(c.cfg.APIURL, "/") + "/accounts/" + c.cfg.AccountID + suffix
}
