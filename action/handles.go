package action

import "github.com/ros2go/ros2action/wireid"

// GoalHandle is implemented by every goal-handle shape; it exposes
// only what is common to all of them, the goal's identity.
type GoalHandle interface {
	GoalId() GoalId
}

// innerGoalHandle is the shared representation underlying every
// handle shape. Go has no phantom types, so the goal payload type is
// carried as the handle's own type parameter instead of a marker
// field.
type innerGoalHandle[G any] struct {
	goalId GoalId
}

// NewGoalHandle is returned by ReceiveNewGoal: a goal that has not yet
// been accepted or rejected. It additionally carries the RequestId of
// the originating SendGoalRequest, needed to route the eventual
// accept/reject response back to the right caller.
type NewGoalHandle[G any] struct {
	inner innerGoalHandle[G]
	reqId wireid.RequestId
}

func (h NewGoalHandle[G]) GoalId() GoalId { return h.inner.goalId }

// AcceptedGoalHandle is returned by AcceptGoal: a goal accepted for
// later execution.
type AcceptedGoalHandle[G any] struct {
	inner innerGoalHandle[G]
}

func (h AcceptedGoalHandle[G]) GoalId() GoalId { return h.inner.goalId }

// ExecutingGoalHandle is returned by StartExecutingGoal: a goal
// actively being worked on, the only state from which feedback may be
// published.
type ExecutingGoalHandle[G any] struct {
	inner innerGoalHandle[G]
}

func (h ExecutingGoalHandle[G]) GoalId() GoalId { return h.inner.goalId }

// CancelHandle is returned by ReceiveCancelRequest: the originating
// RequestId together with the goals eligible for cancellation under
// the request's predicate.
type CancelHandle struct {
	reqId       wireid.RequestId
	goals       []GoalId
	originalReq CancelGoalRequest
}

// Goals returns the goal ids this cancel request may cancel.
func (h *CancelHandle) Goals() []GoalId {
	out := make([]GoalId, len(h.goals))
	copy(out, h.goals)
	return out
}

// ContainsGoal reports whether id is one of the goals this cancel
// request may cancel.
func (h *CancelHandle) ContainsGoal(id GoalId) bool {
	for _, g := range h.goals {
		if g == id {
			return true
		}
	}
	return false
}

// GoalEndStatus is the terminal status a goal may be reported as
// reaching via SendResultResponse.
type GoalEndStatus uint8

const (
	EndSucceeded GoalEndStatus = iota
	EndAborted
	EndCanceled
)

func (e GoalEndStatus) toGoalStatus() GoalStatus {
	switch e {
	case EndAborted:
		return StatusAborted
	case EndCanceled:
		return StatusCanceled
	default:
		return StatusSucceeded
	}
}
