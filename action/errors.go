package action

import "fmt"

// ErrNoSuchGoal reports that a handle references a goal not present in
// the registry: already terminal-pruned, or never accepted.
type ErrNoSuchGoal struct {
	GoalId GoalId
}

func (e *ErrNoSuchGoal) Error() string {
	return fmt.Sprintf("action: no such goal %s", e.GoalId)
}

// ErrWrongGoalState reports that a handle is valid but the registry's
// current status disallows the requested operation.
type ErrWrongGoalState struct {
	GoalId   GoalId
	Status   GoalStatus
	Expected string
}

func (e *ErrWrongGoalState) Error() string {
	return fmt.Sprintf("action: goal %s is %s, expected %s", e.GoalId, e.Status, e.Expected)
}

// DDSWriteError carries back an undelivered payload alongside the
// underlying transport failure.
type DDSWriteError[T any] struct {
	Payload T
	Cause   error
}

func (e *DDSWriteError[T]) Error() string {
	return fmt.Sprintf("action: DDS write failed: %v", e.Cause)
}

func (e *DDSWriteError[T]) Unwrap() error { return e.Cause }
