package report

import "testing"

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name     string
		queue    string
		patterns []string
		want     bool
	}{
		{
			name:     "exact match",
			queue:    "audit",
			patterns: []string{"audit"},
			want:     true,
		},
		{
			name:     "exact is not a substring match",
			queue:    "audit-log",
			patterns: []string{"audit"},
			want:     false,
		},
		{
			name:     "prefix wildcard",
			queue:    "system.heartbeat",
			patterns: []string{"system.*"},
			want:     true,
		},
		{
			name:     "suffix wildcard",
			queue:    "sales.retries",
			patterns: []string{"*.retries"},
			want:     true,
		},
		{
			name:     "contains wildcard",
			queue:    "a-staging-b",
			patterns: []string{"*staging*"},
			want:     true,
		},
		{
			name:     "no patterns",
			queue:    "anything",
			patterns: nil,
			want:     false,
		},
		{
			name:     "multiple patterns, second matches",
			queue:    "error",
			patterns: []string{"audit", "error"},
			want:     true,
		},
		{
			name:     "non-matching wildcard",
			queue:    "orders",
			patterns: []string{"billing*", "*audit"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAny(tt.queue, tt.patterns); got != tt.want {
				t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.queue, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name    string
		queue   string
		pattern string
		want    bool
	}{
		{"exact hit", "orders", "orders", true},
		{"exact miss", "orders", "order", false},
		{"prefix hit", "orders.v2", "orders*", true},
		{"prefix miss", "billing", "orders*", false},
		{"suffix hit", "sales.timeouts", "*.timeouts", true},
		{"suffix miss", "sales.timeoutsdispatcher", "*.timeouts", false},
		{"contains hit", "x-temp-y", "*temp*", true},
		{"contains miss", "x-y", "*temp*", false},
		{"bare star matches everything", "anything", "**", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesPattern(tt.queue, tt.pattern); got != tt.want {
				t.Errorf("matchesPattern(%q, %q) = %v, want %v", tt.queue, tt.pattern, got, tt.want)
			}
		})
	}
}
