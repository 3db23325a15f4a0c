package service

import "fmt"

// ValidationError reports a malformed booking request that failed the
// coordinator's own precondition checks. The HTTP layer validates too;
// this is the defense-in-depth re-check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AvailabilityError rejects a booking because the requested range is not
// free. Reason carries the human-readable explanation returned to the
// client; the coordinator never retries past this error.
type AvailabilityError struct {
	Reason string
}

func (e *AvailabilityError) Error() string { return e.Reason }
