package entity

import "fmt"

// InvalidTransitionError reports an attempted status change that the
// lifecycle does not allow.
type InvalidTransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
