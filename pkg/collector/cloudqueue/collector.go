/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cloudqueue measures throughput for a cloud queueing service
// whose metrics sidecar exposes per-queue counters in Prometheus text
// exposition format.
package cloudqueue

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
	"github.com/mqmeter/mqmeter/pkg/report"
)

// Sidecar metric names.
const (
	// Cumulative messages delivered per queue, labelled by queue name.
	metricMessagesSent = "cloudqueue_messages_sent_total"

	// Sidecar build information, labelled with version and service.
	metricBuildInfo = "cloudqueue_build_info"
)

const queueLabel = "queue"

// Collector scrapes the sidecar once at discovery and once at the end of
// the sampling window; throughput is the per-queue counter delta.
type Collector struct {
	cfg    config.CloudQueueConfig
	client *fetch.Client
	prefix string

	mu       sync.Mutex
	baseline map[string]int64
	final    map[string]int64
	scraped  bool
	info     string
}

// New builds a cloud queue collector.
func New(cfg config.CloudQueueConfig, client *fetch.Client, prefix string) *Collector {
	return &Collector{cfg: cfg, client: client, prefix: prefix}
}

// ScopeType implements collector.ScopeTyper.
func (c *Collector) ScopeType() string { return "Region" }

// DiscoverQueues scrapes the sidecar and returns the queue label values of
// the sent-counter family. Exposition families are unordered, so names are
// sorted for a deterministic report order.
func (c *Collector) DiscoverQueues(ctx context.Context) ([]string, error) {
	counters, err := c.scrape(ctx)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		return nil, collector.NewEnvironmentError(
			fmt.Sprintf("metrics sidecar exposes no %s family", metricMessagesSent),
			"Enable per-queue metrics on the sidecar (metrics.per_queue: true) and re-run.",
		)
	}

	names := make([]string, 0, len(counters))
	c.mu.Lock()
	c.baseline = make(map[string]int64, len(counters))
	for name, value := range counters {
		if c.prefix != "" && !strings.HasPrefix(name, c.prefix) {
			continue
		}
		names = append(names, name)
		c.baseline[name] = value
	}
	c.mu.Unlock()

	sort.Strings(names)
	return names, nil
}

// MeasureThroughput returns the counter delta for one queue. The sidecar
// is scraped once for the whole measurement pass; a queue missing from the
// final scrape has no data for the window.
func (c *Collector) MeasureThroughput(ctx context.Context, queue string, _ collector.Window) (report.QueueThroughputSample, error) {
	final, err := c.finalScrape(ctx)
	if err != nil {
		return report.QueueThroughputSample{}, err
	}

	c.mu.Lock()
	base, hadBaseline := c.baseline[queue]
	c.mu.Unlock()

	end, ok := final[queue]
	if !ok || !hadBaseline {
		sample := report.Unmeasured(queue)
		sample.Scope = c.cfg.Region
		return sample, nil
	}

	delta := end - base
	if delta < 0 {
		delta = 0
	}
	sample := report.Measured(queue, delta)
	sample.Scope = c.cfg.Region
	return sample, nil
}

// DescribeMethod reports the sidecar build identity.
func (c *Collector) DescribeMethod(ctx context.Context) (string, error) {
	c.mu.Lock()
	info := c.info
	c.mu.Unlock()
	if info != "" {
		return info, nil
	}
	if _, err := c.scrape(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info == "" {
		c.info = fmt.Sprintf("Cloud queue metrics sidecar, region %s", c.cfg.Region)
	}
	return c.info, nil
}

// finalScrape performs the end-of-window scrape exactly once, shared by
// all concurrent MeasureThroughput calls.
func (c *Collector) finalScrape(ctx context.Context) (map[string]int64, error) {
	c.mu.Lock()
	if c.scraped {
		defer c.mu.Unlock()
		return c.final, nil
	}
	c.mu.Unlock()

	counters, err := c.scrape(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.scraped {
		c.final = counters
		c.scraped = true
	}
	return c.final, nil
}

// scrape fetches and parses the sidecar exposition, returning the sent
// counter keyed by queue label. Returns nil when the family is absent.
func (c *Collector) scrape(ctx context.Context) (map[string]int64, error) {
	body, err := c.client.Get(ctx, c.cfg.SidecarURL)
	if err != nil {
		return nil, fmt.Errorf("scrape sidecar: %w", err)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil && len(families) == 0 {
		return nil, fmt.Errorf("parse sidecar exposition: %w", err)
	}

	if bi := families[metricBuildInfo]; bi != nil && len(bi.GetMetric()) > 0 {
		c.rememberBuildInfo(bi.GetMetric()[0])
	}

	family := families[metricMessagesSent]
	if family == nil {
		return nil, nil
	}

	counters := make(map[string]int64)
	for _, m := range family.GetMetric() {
		queue := labelValue(m, queueLabel)
		if queue == "" {
			continue
		}
		counters[queue] = int64(counterValue(m))
	}
	return counters, nil
}

func (c *Collector) rememberBuildInfo(m *dto.Metric) {
	version := labelValue(m, "version")
	service := labelValue(m, "service")
	if version == "" && service == "" {
		return
	}
	c.mu.Lock()
	c.info = fmt.Sprintf("Cloud queue service %s, sidecar v%s, region %s", service, version, c.cfg.Region)
	c.mu.Unlock()
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// counterValue reads a counter, gauge or untyped sample value.
func counterValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}
