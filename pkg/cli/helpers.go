/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/mqmeter/mqmeter/pkg/collector"
)

// parseTransport validates the transport name and, on a typo, suggests
// the closest supported transport.
func parseTransport(name string) (collector.Transport, error) {
	if name == "" {
		return "", fmt.Errorf("a transport is required (--transport), supported: %v", collector.SupportedTransports())
	}

	t := collector.Transport(strings.ToLower(name))
	if t.IsValid() {
		return t, nil
	}

	if suggestion := closestTransport(string(t)); suggestion != "" {
		return "", fmt.Errorf("unknown transport %q, did you mean %q?", name, suggestion)
	}
	return "", fmt.Errorf("unknown transport %q, supported: %v", name, collector.SupportedTransports())
}

// closestTransport returns the supported transport within a small edit
// distance of the input, or "" when nothing is close enough to suggest.
func closestTransport(name string) string {
	best := ""
	bestDistance := 4 // more than 3 edits away is not a typo
	for _, t := range collector.SupportedTransports() {
		d := levenshtein.ComputeDistance(name, string(t))
		if d < bestDistance {
			best = string(t)
			bestDistance = d
		}
	}
	return best
}

// defaultOutputPath derives the report file name from the customer and
// the measurement end time.
func defaultOutputPath(customer string, end time.Time) string {
	slug := strings.ToLower(customer)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	return fmt.Sprintf("throughput-report-%s-%s.json", slug, end.UTC().Format("20060102T150405Z"))
}
