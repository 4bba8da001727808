/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package audit

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/report"
	"github.com/mqmeter/mqmeter/pkg/signing"
)

// Runner drives one full measurement run. It is built once from the
// merged configuration and not reused.
type Runner struct {
	Customer    string
	Transport   collector.Transport
	Prefix      string
	IgnoreList  []string
	Duration    time.Duration
	ToolVersion string

	// MaxConcurrency bounds concurrent MeasureThroughput calls so the
	// broker's management API is not overwhelmed.
	MaxConcurrency int

	Factory Factory
}

// Run executes the run: discover queues, wait out the sampling window,
// measure every queue, aggregate and sign. Cancellation at any point
// aborts the run without producing a partial artifact.
func (r *Runner) Run(ctx context.Context) (*signing.SignedReport, error) {
	start := time.Now()
	defer func() {
		runDuration.Observe(time.Since(start).Seconds())
	}()

	c, err := r.Factory.Create(r.Transport)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	method, err := c.DescribeMethod(ctx)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("describe %s: %w", r.Transport, err)
	}
	slog.Info("measurement method", "transport", r.Transport, "method", method)

	windowStart := time.Now().UTC()
	queues, err := c.DiscoverQueues(ctx)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("discover queues on %s: %w", r.Transport, err)
	}
	slog.Info("queues discovered", "transport", r.Transport, "count", len(queues), "window", r.Duration.String())

	if err := r.waitWindow(ctx); err != nil {
		runsTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}
	window := collector.Window{Start: windowStart, End: time.Now().UTC()}

	samples, err := r.measureAll(ctx, c, queues, window)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rep := report.Aggregate(samples, r.runMeta(c, method, window))
	slog.Info("report aggregated",
		"queues", rep.TotalQueues,
		"total_throughput", rep.TotalThroughput,
		"ignored", len(rep.IgnoredQueues),
	)

	signed, err := signing.Sign(rep)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sign report: %w", err)
	}

	runsTotal.WithLabelValues("success").Inc()
	queuesMeasured.Set(float64(rep.TotalQueues))
	return signed, nil
}

// waitWindow sleeps out the sampling window, honoring cancellation.
func (r *Runner) waitWindow(ctx context.Context) error {
	if r.Duration <= 0 {
		return nil
	}
	timer := time.NewTimer(r.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// measureAll measures every discovered queue. Measurements are
// independent reads against the broker, so they run concurrently under
// the configured limit. Results keep discovery order.
func (r *Runner) measureAll(ctx context.Context, c collector.Collector, queues []string, window collector.Window) ([]report.QueueThroughputSample, error) {
	samples := make([]report.QueueThroughputSample, len(queues))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, queue := range queues {
		g.Go(func() error {
			measureStart := time.Now()
			sample, err := c.MeasureThroughput(gctx, queue, window)
			measureDuration.WithLabelValues(string(r.Transport)).Observe(time.Since(measureStart).Seconds())
			if err != nil {
				return fmt.Errorf("measure queue %q: %w", queue, err)
			}
			samples[i] = sample
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *Runner) runMeta(c collector.Collector, method string, window collector.Window) report.RunMeta {
	meta := report.RunMeta{
		CustomerName:     r.Customer,
		MessageTransport: string(r.Transport),
		ReportMethod:     method,
		ToolVersion:      r.ToolVersion,
		Prefix:           r.Prefix,
		StartTime:        window.Start,
		EndTime:          window.End,
		ReportDuration:   window.Duration(),
		IgnoreList:       r.IgnoreList,
	}
	if st, ok := c.(collector.ScopeTyper); ok {
		meta.ScopeType = st.ScopeType()
	}
	if wr, ok := c.(collector.WindowReporter); ok {
		meta.ReportDuration = wr.EffectiveWindow(window)
	}
	return meta
}
