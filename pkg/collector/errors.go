package collector

import "fmt"

// EnvironmentError is a fatal, non-retryable condition: the broker is
// configured such that measurement is structurally impossible. Partial
// data in this mode would be misleading rather than merely incomplete, so
// the whole run halts without producing a report.
type EnvironmentError struct {
	Reason      string
	Remediation string
}

// NewEnvironmentError builds an EnvironmentError with a human-actionable
// remediation message.
func NewEnvironmentError(reason, remediation string) *EnvironmentError {
	return &EnvironmentError{Reason: reason, Remediation: remediation}
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("invalid environment: %s", e.Reason)
}
