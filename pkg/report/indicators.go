package report

import "strings"

// Well-known subqueue suffixes created by service-bus frameworks. Their
// presence marks the base queue as an application endpoint rather than
// infrastructure.
const (
	indicatorTimeouts           = "TimeoutQueue"
	indicatorTimeoutsDispatcher = "TimeoutDispatcherQueue"
	indicatorRetries            = "RetriesQueue"
	indicatorAudit              = "AuditQueue"
	indicatorError              = "ErrorQueue"
)

// Ordered: indicator order feeds the signed payload and must stay stable.
var endpointSuffixes = []struct {
	suffix    string
	indicator string
}{
	{".timeoutsdispatcher", indicatorTimeoutsDispatcher},
	{".timeouts", indicatorTimeouts},
	{".retries", indicatorRetries},
}

var systemQueueNames = map[string]string{
	"audit": indicatorAudit,
	"error": indicatorError,
}

// ClassifyEndpointIndicators returns heuristic markers for a queue name.
// Downstream consumers use these to decide whether a queue represents an
// endpoint or a piece of system infrastructure. Returns nil when nothing
// matched so the field is omitted from serialized samples.
func ClassifyEndpointIndicators(queue string) []string {
	var indicators []string

	lower := strings.ToLower(queue)
	for _, s := range endpointSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			indicators = append(indicators, s.indicator)
			break
		}
	}
	if indicator, ok := systemQueueNames[lower]; ok {
		indicators = append(indicators, indicator)
	}

	return indicators
}
