package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("not found")

// InvalidTransitionError is returned when a job lifecycle operation is called
// while the job is not in a state the operation may start from. Callers can
// distinguish this from ErrNotFound.
type InvalidTransitionError struct {
	JobID string
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("job %s: cannot transition from %s to %s", e.JobID, e.From, e.To)
}

// DependencyNotMetError is returned by Start when a non-optional dependency's
// prerequisite job has not completed.
type DependencyNotMetError struct {
	JobID  string
	Reason string
}

func (e *DependencyNotMetError) Error() string {
	return fmt.Sprintf("job %s cannot start: %s", e.JobID, e.Reason)
}
