package report

import "strings"

// MatchesAny reports whether a queue name matches any of the ignore
// patterns. Supported pattern forms:
//   - "prefix*" matches names starting with "prefix"
//   - "*suffix" matches names ending with "suffix"
//   - "*contains*" matches names containing "contains"
//   - "exact" matches names exactly
func MatchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesPattern(name, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a queue name matches a wildcard pattern.
func matchesPattern(name, pattern string) bool {
	// No wildcard - exact match
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}

	// *contains* - contains match
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		substr := strings.Trim(pattern, "*")
		return strings.Contains(name, substr)
	}

	// *suffix - ends with match
	if strings.HasPrefix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(name, suffix)
	}

	// prefix* - starts with match
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(name, prefix)
	}

	return false
}
