// Package action implements the ROS 2 Action protocol layer: goal
// submission, cancellation, and result retrieval as correlated
// request/reply services, feedback and status as pub/sub topics, and
// the per-goal state machine that ties them together.
package action

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GoalId is a 128-bit universally unique identifier for a single goal,
// generated by the client at submission time.
type GoalId uuid.UUID

// GoalIdZero is the wildcard GoalId used in cancel requests to mean
// "no specific goal".
var GoalIdZero = GoalId{}

// NewGoalId generates a fresh, random GoalId.
func NewGoalId() GoalId {
	return GoalId(uuid.New())
}

// IsZero reports whether g is the wildcard GoalId.
func (g GoalId) IsZero() bool { return g == GoalIdZero }

func (g GoalId) String() string { return uuid.UUID(g).String() }

// Timestamp mirrors the ROS 2 builtin_interfaces/Time wire format.
type Timestamp struct {
	Sec     int32
	Nanosec uint32
}

// TimestampZero is the wildcard Timestamp used in cancel requests to
// mean "no time bound".
var TimestampZero = Timestamp{}

// IsZero reports whether t is the wildcard Timestamp.
func (t Timestamp) IsZero() bool { return t == TimestampZero }

// Before reports whether t is strictly earlier than other. Cancel
// predicates use strict less-than, even though the ROS 2 docs describe
// "at or before" (see DESIGN.md decision 4).
func (t Timestamp) Before(other Timestamp) bool {
	if t.Sec != other.Sec {
		return t.Sec < other.Sec
	}
	return t.Nanosec < other.Nanosec
}

// Now reads the wall clock as a Timestamp.
func Now() Timestamp {
	t := time.Now()
	return Timestamp{Sec: int32(t.Unix()), Nanosec: uint32(t.Nanosecond())}
}

// GoalStatus is the per-goal lifecycle state.
type GoalStatus uint8

const (
	StatusUnknown GoalStatus = iota
	StatusAccepted
	StatusExecuting
	StatusCanceling
	StatusSucceeded
	StatusCanceled
	StatusAborted
)

func (s GoalStatus) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusExecuting:
		return "EXECUTING"
	case StatusCanceling:
		return "CANCELING"
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusCanceled:
		return "CANCELED"
	case StatusAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("GoalStatus(%d)", uint8(s))
	}
}

// IsTerminal reports whether s is one of the three terminal states.
func (s GoalStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusCanceled || s == StatusAborted
}

// GoalInfo pairs a goal id with the time it was accepted.
type GoalInfo struct {
	GoalId GoalId
	Stamp  Timestamp
}

// GoalStatusSnapshot is one entry of a GoalStatusArray.
type GoalStatusSnapshot struct {
	GoalInfo GoalInfo
	Status   GoalStatus
}

// GoalStatusArray is a full snapshot of every goal known to a server,
// re-published in full on every state change.
type GoalStatusArray struct {
	StatusList []GoalStatusSnapshot
}

// SendGoalRequest is the request message for the goal-submission
// service.
type SendGoalRequest[G any] struct {
	GoalId GoalId
	Goal   G
}

// SendGoalResponse is the reply message for the goal-submission
// service.
type SendGoalResponse struct {
	Accepted bool
	Stamp    Timestamp
}

// GetResultRequest is the request message for the result-retrieval
// service.
type GetResultRequest struct {
	GoalId GoalId
}

// GetResultResponse is the reply message for the result-retrieval
// service.
type GetResultResponse[R any] struct {
	Status GoalStatus
	Result R
}

// FeedbackMessage is published on the feedback topic, tagged with the
// goal it reports progress for.
type FeedbackMessage[F any] struct {
	GoalId   GoalId
	Feedback F
}

// CancelReturnCode reports the server's decision on a CancelGoalRequest.
type CancelReturnCode uint8

const (
	CancelNone CancelReturnCode = iota // accepted
	CancelRejected
	CancelUnknownGoal
	CancelGoalTerminated
)

func (c CancelReturnCode) String() string {
	switch c {
	case CancelNone:
		return "NONE"
	case CancelRejected:
		return "REJECTED"
	case CancelUnknownGoal:
		return "UNKNOWN_GOAL"
	case CancelGoalTerminated:
		return "GOAL_TERMINATED"
	default:
		return fmt.Sprintf("CancelReturnCode(%d)", uint8(c))
	}
}

// CancelGoalRequest carries the (goal id, timestamp) pair whose
// interpretation is defined by the cancel predicate in cancel.go.
type CancelGoalRequest struct {
	GoalInfo GoalInfo
}

// CancelGoalResponse is the reply message for the cancellation
// service.
type CancelGoalResponse struct {
	ReturnCode     CancelReturnCode
	GoalsCanceling []GoalInfo
}

// ActionTypes binds the concrete goal, result, and feedback payload
// types for one action, together with their wire type names: a single
// capability record rather than a deep inheritance hierarchy.
type ActionTypes[G any, R any, F any] struct {
	GoalTypeName     string
	ResultTypeName   string
	FeedbackTypeName string
}
