/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package signing implements the signed report codec: canonical
// serialization of a report, RSA signing of its digest, and offline
// verification against the public key shipped with the tool.
package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mqmeter/mqmeter/pkg/report"
)

// SchemaVersion identifies one set of canonicalization rules. Signatures
// are valid only under the rules they were produced with, so each
// historical schema shape keeps its own version forever.
type SchemaVersion int

const (
	// SchemaV1 is the legacy shape: 32-bit totals, no Scope/ScopeType
	// fields. Verify-only; new reports are never signed under V1.
	SchemaV1 SchemaVersion = 1

	// SchemaV2 is the current shape: 64-bit totals with scope fields
	// folded into samples. All new signatures use V2.
	SchemaV2 SchemaVersion = 2
)

// CanonicalBytes serializes a report under the given schema version's
// canonicalization rules: declaration-order fields, no extraneous
// whitespace, per-field omission policy as pinned in the report package.
// TotalThroughput, TotalQueues and the queue array are always emitted.
// Serializing the same report twice yields byte-identical output.
func CanonicalBytes(r report.Report, v SchemaVersion) ([]byte, error) {
	switch v {
	case SchemaV2:
		return marshalCanonical(canonicalV2(r))
	case SchemaV1:
		return marshalCanonical(canonicalV1(r))
	default:
		return nil, fmt.Errorf("unknown schema version %d", v)
	}
}

// marshalCanonical encodes without HTML escaping and strips the trailing
// newline json.Encoder appends. json.Marshal would escape <, > and &,
// which older signatures were not computed over.
func marshalCanonical(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// canonicalV2 normalizes a report for V2 serialization. The only
// adjustment is materializing a nil queue slice: the queue array is
// always present in canonical form.
func canonicalV2(r report.Report) report.Report {
	if r.Queues == nil {
		r.Queues = []report.QueueThroughputSample{}
	}
	return r
}

// sampleV1 is the legacy per-queue shape. No Scope field.
type sampleV1 struct {
	QueueName          string   `json:"QueueName"`
	Throughput         *int64   `json:"Throughput"`
	NoDataOrSendOnly   bool     `json:"NoDataOrSendOnly,omitempty"`
	EndpointIndicators []string `json:"EndpointIndicators,omitempty"`
}

// reportV1 is the legacy report shape: 32-bit totals, no ScopeType.
// Legacy reports predate scoped transports, so totals never exceeded the
// 32-bit range in practice.
type reportV1 struct {
	CustomerName     string          `json:"CustomerName"`
	MessageTransport string          `json:"MessageTransport"`
	ReportMethod     string          `json:"ReportMethod"`
	ToolVersion      string          `json:"ToolVersion"`
	Prefix           string          `json:"Prefix,omitempty"`
	StartTime        time.Time       `json:"StartTime"`
	EndTime          time.Time       `json:"EndTime"`
	ReportDuration   report.Duration `json:"ReportDuration"`
	Queues           []sampleV1      `json:"Queues"`
	TotalThroughput  int32           `json:"TotalThroughput"`
	TotalQueues      int32           `json:"TotalQueues"`
	IgnoredQueues    []string        `json:"IgnoredQueues,omitempty"`
}

func canonicalV1(r report.Report) reportV1 {
	queues := make([]sampleV1, 0, len(r.Queues))
	for _, q := range r.Queues {
		queues = append(queues, sampleV1{
			QueueName:          q.QueueName,
			Throughput:         q.Throughput,
			NoDataOrSendOnly:   q.NoDataOrSendOnly,
			EndpointIndicators: q.EndpointIndicators,
		})
	}
	return reportV1{
		CustomerName:     r.CustomerName,
		MessageTransport: r.MessageTransport,
		ReportMethod:     r.ReportMethod,
		ToolVersion:      r.ToolVersion,
		Prefix:           r.Prefix,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		ReportDuration:   r.ReportDuration,
		Queues:           queues,
		TotalThroughput:  int32(r.TotalThroughput),
		TotalQueues:      int32(r.TotalQueues),
		IgnoredQueues:    r.IgnoredQueues,
	}
}
