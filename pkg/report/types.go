/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package report defines the throughput report data model and the
// aggregation step that turns per-queue samples into a single Report.
//
// The JSON tags in this package are part of the signed artifact schema.
// Field order, names, and omission behavior are pinned here explicitly:
// TotalThroughput, TotalQueues and Queues are always serialized, even at
// zero or empty, because signatures over historical reports were computed
// with these fields present. Do not add omitempty to them.
package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueThroughputSample is one measured queue over the sampling window.
//
// Throughput is nil when no data could be collected for the queue; zero is
// a legitimate measured value and must stay distinguishable from "not
// measured". A queue that exists but cannot yield a number (send-only
// endpoint, no statistics) carries NoDataOrSendOnly=true and a nil
// Throughput instead of being omitted from the report.
type QueueThroughputSample struct {
	QueueName          string   `json:"QueueName"`
	Throughput         *int64   `json:"Throughput"`
	NoDataOrSendOnly   bool     `json:"NoDataOrSendOnly,omitempty"`
	EndpointIndicators []string `json:"EndpointIndicators,omitempty"`
	Scope              string   `json:"Scope,omitempty"`
}

// Measured returns a sample with a concrete throughput value.
func Measured(queue string, throughput int64) QueueThroughputSample {
	return QueueThroughputSample{
		QueueName:          queue,
		Throughput:         &throughput,
		EndpointIndicators: ClassifyEndpointIndicators(queue),
	}
}

// Unmeasured returns a sample for a queue that exists but produced no
// throughput number.
func Unmeasured(queue string) QueueThroughputSample {
	return QueueThroughputSample{
		QueueName:          queue,
		NoDataOrSendOnly:   true,
		EndpointIndicators: ClassifyEndpointIndicators(queue),
	}
}

// Duration serializes a time.Duration as its Go string form ("1h0m0s")
// instead of raw nanoseconds. The string form is stable across re-marshal
// cycles, which the canonicalization rules depend on.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Report is the aggregate output of one full run. It is built once by
// Aggregate and never mutated afterwards.
//
// Queues preserves collector discovery order; the order is part of the
// signed payload and must not be re-sorted.
type Report struct {
	CustomerName     string                  `json:"CustomerName"`
	MessageTransport string                  `json:"MessageTransport"`
	ReportMethod     string                  `json:"ReportMethod"`
	ToolVersion      string                  `json:"ToolVersion"`
	Prefix           string                  `json:"Prefix,omitempty"`
	ScopeType        string                  `json:"ScopeType,omitempty"`
	StartTime        time.Time               `json:"StartTime"`
	EndTime          time.Time               `json:"EndTime"`
	ReportDuration   Duration                `json:"ReportDuration"`
	Queues           []QueueThroughputSample `json:"Queues"`
	TotalThroughput  int64                   `json:"TotalThroughput"`
	TotalQueues      int64                   `json:"TotalQueues"`
	IgnoredQueues    []string                `json:"IgnoredQueues,omitempty"`
}
