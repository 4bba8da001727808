/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package version holds build identity and the release-feed freshness
// check.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Overridden during build with ldflags, e.g.
// -X "github.com/mqmeter/mqmeter/pkg/version.Build=1.2.0"
var (
	Build  = "dev"
	Commit = "unknown"
	Date   = "unknown"
)

// DefaultFeedURL is the release feed queried by CheckForUpdate.
const DefaultFeedURL = "https://releases.mqmeter.io/latest.json"

const checkTimeout = 10 * time.Second

// feed is the release feed document.
type feed struct {
	Latest string `json:"latest"`
}

// CheckForUpdate queries the release feed and reports whether a newer
// build exists. Callers must treat a non-nil error as a warning: a feed
// outage never aborts a measurement run.
func CheckForUpdate(ctx context.Context, feedURL, current string) (latest string, newer bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("query release feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("release feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read release feed: %w", err)
	}

	var f feed
	if err := json.Unmarshal(body, &f); err != nil {
		return "", false, fmt.Errorf("decode release feed: %w", err)
	}
	if f.Latest == "" {
		return "", false, fmt.Errorf("release feed has no latest version")
	}

	return f.Latest, IsNewer(f.Latest, current), nil
}

// IsNewer compares dotted numeric versions. Non-numeric segments and the
// "dev" build compare as oldest, so development builds always see the
// update hint.
func IsNewer(candidate, current string) bool {
	if current == "dev" {
		return true
	}
	a := segments(candidate)
	b := segments(current)
	for i := 0; i < len(a) || i < len(b); i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return av > bv
		}
	}
	return false
}

func segments(v string) []int {
	v = strings.TrimPrefix(v, "v")
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
