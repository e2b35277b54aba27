package tracking

import "fmt"

// ValidationError names the offending input field so the caller can
// correct the submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError covers duplicate week submissions and duplicate
// adjustment attempts for the same check-in.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ConsistencyError means the stored snapshot history contradicts the
// pipeline invariants. It signals a bug, not bad input; the transaction
// is rolled back and the caller sees a generic failure.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "internal consistency violation: " + e.Reason
}
