/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package collector defines the transport collector contract and the
// factory that builds one collector per broker technology.
package collector

import (
	"context"
	"time"

	"github.com/mqmeter/mqmeter/pkg/report"
)

// Window bounds one sampling window.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the wall-clock length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Collector measures queue throughput for one transport. Implementations
// must support context-based cancellation on every operation.
//
// A collector MUST classify queues it cannot measure as NoDataOrSendOnly
// samples rather than omitting them; omission would silently understate
// the report's queue count. A broker misconfiguration that makes any
// measurement structurally impossible is reported as an EnvironmentError,
// which aborts the whole run.
type Collector interface {
	// DiscoverQueues lists the broker's queues, already filtered by the
	// configured name prefix. The returned order becomes report order.
	DiscoverQueues(ctx context.Context) ([]string, error)

	// MeasureThroughput measures one queue over the sampling window.
	MeasureThroughput(ctx context.Context, queue string, w Window) (report.QueueThroughputSample, error)

	// DescribeMethod summarizes broker version and topology for the
	// report's audit trail.
	DescribeMethod(ctx context.Context) (string, error)
}

// WindowReporter is implemented by collectors whose effective measurement
// window differs from the tool run window, e.g. a rolling maximum over a
// longer metric retention period.
type WindowReporter interface {
	EffectiveWindow(w Window) time.Duration
}

// ScopeTyper is implemented by collectors whose samples carry a scope,
// naming what the scope means for that transport.
type ScopeTyper interface {
	ScopeType() string
}
