/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"time"
)

// RunMeta carries the run parameters the aggregator stamps into a Report.
type RunMeta struct {
	CustomerName     string
	MessageTransport string
	ReportMethod     string
	ToolVersion      string
	Prefix           string
	ScopeType        string
	StartTime        time.Time
	EndTime          time.Time

	// ReportDuration is the effective measurement window. For most
	// transports this equals EndTime - StartTime, but transports that
	// report a rolling maximum over a longer retention window set their
	// own value.
	ReportDuration time.Duration

	// IgnoreList holds wildcard patterns for queues to exclude from
	// totals. Matching queues are recorded by name only.
	IgnoreList []string
}

// Aggregate merges per-queue samples into a single Report.
//
// Samples whose queue name matches the ignore-list are excluded from
// Queues, TotalThroughput and TotalQueues and recorded by name in
// IgnoredQueues. TotalQueues counts every non-ignored sample, including
// unmeasured ones: a queue that exists but could not be measured still
// reflects tool-output size. Sample order is preserved as given.
func Aggregate(samples []QueueThroughputSample, meta RunMeta) Report {
	counted := make([]QueueThroughputSample, 0, len(samples))
	var ignored []string
	var total int64

	for _, s := range samples {
		if MatchesAny(s.QueueName, meta.IgnoreList) {
			ignored = append(ignored, s.QueueName)
			continue
		}
		counted = append(counted, s)
		if s.Throughput != nil {
			total += *s.Throughput
		}
	}

	return Report{
		CustomerName:     meta.CustomerName,
		MessageTransport: meta.MessageTransport,
		ReportMethod:     meta.ReportMethod,
		ToolVersion:      meta.ToolVersion,
		Prefix:           meta.Prefix,
		ScopeType:        meta.ScopeType,
		StartTime:        meta.StartTime.UTC(),
		EndTime:          meta.EndTime.UTC(),
		ReportDuration:   Duration(meta.ReportDuration),
		Queues:           counted,
		TotalThroughput:  total,
		TotalQueues:      int64(len(counted)),
		IgnoredQueues:    ignored,
	}
}
