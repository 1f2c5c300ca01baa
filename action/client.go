package action

import (
	"context"

	"github.com/ros2go/ros2action/internal/logging"
	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/service"
	"github.com/ros2go/ros2action/wireid"
)

var clientLog = logging.For("action.client")

// ActionClient bundles the six DDS endpoints an action client needs
// in the client direction, and correlates goal ids with request ids.
type ActionClient[G any, R any, F any] struct {
	name string

	goalClient   *service.Client[SendGoalRequest[G], SendGoalResponse]
	cancelClient *service.Client[CancelGoalRequest, CancelGoalResponse]
	resultClient *service.Client[GetResultRequest, GetResultResponse[R]]
	feedbackSub  rtps.Subscriber[FeedbackMessage[F]]
	statusSub    rtps.Subscriber[GoalStatusArray]
}

// NewActionClient constructs an ActionClient for the action mounted at
// name on participant p.
func NewActionClient[G any, R any, F any](
	p *rtps.LocalParticipant,
	name string,
	policies qos.ActionClientQosPolicies,
	mapping wireid.ServiceMapping,
) *ActionClient[G, R, F] {
	topics := rtps.ResolveActionTopics(name)
	return &ActionClient[G, R, F]{
		name:         name,
		goalClient:   service.NewClient[SendGoalRequest[G], SendGoalResponse](p, topics.GoalRequest, topics.GoalReply, policies.GoalService, mapping),
		cancelClient: service.NewClient[CancelGoalRequest, CancelGoalResponse](p, topics.CancelRequest, topics.CancelReply, policies.CancelService, mapping),
		resultClient: service.NewClient[GetResultRequest, GetResultResponse[R]](p, topics.ResultRequest, topics.ResultReply, policies.ResultService, mapping),
		feedbackSub:  rtps.NewSubscriber[FeedbackMessage[F]](p, topics.Feedback, policies.FeedbackSubscription),
		statusSub:    rtps.NewSubscriber[GoalStatusArray](p, topics.Status, policies.StatusSubscription),
	}
}

// Name returns the action's logical name.
func (c *ActionClient[G, R, F]) Name() string { return c.name }

// SendGoal generates a fresh GoalId and submits it. The goal id is the
// caller's permanent handle to subsequent feedback/status/result.
func (c *ActionClient[G, R, F]) SendGoal(goal G) (wireid.RequestId, GoalId, error) {
	goalId := NewGoalId()
	reqId, err := c.goalClient.SendRequest(SendGoalRequest[G]{GoalId: goalId, Goal: goal})
	if err != nil {
		return wireid.RequestId{}, GoalId{}, err
	}
	return reqId, goalId, nil
}

// AsyncSendGoal submits goal and awaits the server's response.
func (c *ActionClient[G, R, F]) AsyncSendGoal(ctx context.Context, goal G) (GoalId, SendGoalResponse, error) {
	goalId := NewGoalId()
	resp, err := c.goalClient.AsyncCallService(ctx, SendGoalRequest[G]{GoalId: goalId, Goal: goal})
	if err != nil {
		return GoalId{}, SendGoalResponse{}, err
	}
	return goalId, resp, nil
}

// ReceiveGoalResponse polls for the response to reqId, discarding any
// other goal-response observed along the way.
func (c *ActionClient[G, R, F]) ReceiveGoalResponse(reqId wireid.RequestId) (*SendGoalResponse, error) {
	return c.goalClient.ReceiveResponse(reqId)
}

func (c *ActionClient[G, R, F]) cancelRaw(goalId GoalId, stamp Timestamp) (wireid.RequestId, error) {
	return c.cancelClient.SendRequest(CancelGoalRequest{GoalInfo: GoalInfo{GoalId: goalId, Stamp: stamp}})
}

// CancelGoal sends a CancelGoalRequest targeting exactly goalId.
func (c *ActionClient[G, R, F]) CancelGoal(goalId GoalId) (wireid.RequestId, error) {
	return c.cancelRaw(goalId, TimestampZero)
}

// CancelAllGoalsBefore sends a CancelGoalRequest for every goal
// accepted strictly before ts.
func (c *ActionClient[G, R, F]) CancelAllGoalsBefore(ts Timestamp) (wireid.RequestId, error) {
	return c.cancelRaw(GoalIdZero, ts)
}

// CancelAllGoals sends a CancelGoalRequest matching every eligible
// goal.
func (c *ActionClient[G, R, F]) CancelAllGoals() (wireid.RequestId, error) {
	return c.cancelRaw(GoalIdZero, TimestampZero)
}

// ReceiveCancelResponse polls for the response to reqId.
func (c *ActionClient[G, R, F]) ReceiveCancelResponse(reqId wireid.RequestId) (*CancelGoalResponse, error) {
	return c.cancelClient.ReceiveResponse(reqId)
}

// AsyncCancelGoal sends a cancel request for (goalId, ts) and awaits
// the response.
func (c *ActionClient[G, R, F]) AsyncCancelGoal(ctx context.Context, goalId GoalId, ts Timestamp) (CancelGoalResponse, error) {
	return c.cancelClient.AsyncCallService(ctx, CancelGoalRequest{GoalInfo: GoalInfo{GoalId: goalId, Stamp: ts}})
}

// RequestResult requests the result for goalId. The server may
// withhold its reply until the goal reaches a terminal status.
func (c *ActionClient[G, R, F]) RequestResult(goalId GoalId) (wireid.RequestId, error) {
	return c.resultClient.SendRequest(GetResultRequest{GoalId: goalId})
}

// ReceiveResult polls for the response to reqId.
func (c *ActionClient[G, R, F]) ReceiveResult(reqId wireid.RequestId) (*GetResultResponse[R], error) {
	return c.resultClient.ReceiveResponse(reqId)
}

// AsyncRequestResult requests the result for goalId and blocks until
// it is available. Callers should issue this as soon as the goal is
// accepted; the server only replies once the goal is terminal.
func (c *ActionClient[G, R, F]) AsyncRequestResult(ctx context.Context, goalId GoalId) (GetResultResponse[R], error) {
	return c.resultClient.AsyncCallService(ctx, GetResultRequest{GoalId: goalId})
}

// ReceiveFeedback polls for a feedback message for goalId, discarding
// feedback for other goals observed along the way.
func (c *ActionClient[G, R, F]) ReceiveFeedback(goalId GoalId) (*F, error) {
	for {
		msg, ok, err := c.feedbackSub.Take()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if msg.GoalId == goalId {
			fb := msg.Feedback
			return &fb, nil
		}
		clientLog.WithField("action", c.name).Debugf("feedback for another goal %v != %v", msg.GoalId, goalId)
	}
}

// FeedbackStream returns a lazy, filtered sequence of feedback for
// goalId. It never blocks until Next is called.
func (c *ActionClient[G, R, F]) FeedbackStream(goalId GoalId) *FeedbackStream[F] {
	return &FeedbackStream[F]{sub: c.feedbackSub, goalId: goalId, name: c.name}
}

// FeedbackStream is a pull-based, infinite sequence of feedback for a
// single goal.
type FeedbackStream[F any] struct {
	sub    rtps.Subscriber[FeedbackMessage[F]]
	goalId GoalId
	name   string
}

// Next blocks until feedback for this stream's goal arrives or ctx is
// done, silently skipping feedback tagged with other goal ids.
func (s *FeedbackStream[F]) Next(ctx context.Context) (F, error) {
	for {
		msg, err := s.sub.TakeBlocking(ctx)
		if err != nil {
			var zero F
			return zero, err
		}
		if msg.GoalId == s.goalId {
			return msg.Feedback, nil
		}
		clientLog.WithField("action", s.name).Debugf("feedback for another goal %v != %v", msg.GoalId, s.goalId)
	}
}

// ReceiveStatus polls for the next full GoalStatusArray broadcast.
func (c *ActionClient[G, R, F]) ReceiveStatus() (*GoalStatusArray, error) {
	arr, ok, err := c.statusSub.Take()
	if err != nil || !ok {
		return nil, err
	}
	return &arr, nil
}

// AsyncReceiveStatus blocks until the next GoalStatusArray broadcast
// arrives or ctx is done.
func (c *ActionClient[G, R, F]) AsyncReceiveStatus(ctx context.Context) (GoalStatusArray, error) {
	return c.statusSub.TakeBlocking(ctx)
}

// AllStatusesStream returns a lazy sequence of every GoalStatusArray
// broadcast.
func (c *ActionClient[G, R, F]) AllStatusesStream() *AllStatusesStream {
	return &AllStatusesStream{sub: c.statusSub}
}

// AllStatusesStream is a pull-based, infinite sequence of full status
// array broadcasts.
type AllStatusesStream struct {
	sub rtps.Subscriber[GoalStatusArray]
}

// Next blocks until the next status array arrives or ctx is done.
func (s *AllStatusesStream) Next(ctx context.Context) (GoalStatusArray, error) {
	return s.sub.TakeBlocking(ctx)
}

// StatusStream returns a lazy sequence of just this goal's status,
// extracted from each full broadcast.
func (c *ActionClient[G, R, F]) StatusStream(goalId GoalId) *StatusStream {
	return &StatusStream{all: c.AllStatusesStream(), goalId: goalId}
}

// StatusStream is a pull-based, infinite sequence of status updates
// for a single goal.
type StatusStream struct {
	all    *AllStatusesStream
	goalId GoalId
}

// Next blocks until the next status array containing this stream's
// goal arrives or ctx is done.
func (s *StatusStream) Next(ctx context.Context) (GoalStatusSnapshot, error) {
	for {
		arr, err := s.all.Next(ctx)
		if err != nil {
			return GoalStatusSnapshot{}, err
		}
		for _, snap := range arr.StatusList {
			if snap.GoalInfo.GoalId == s.goalId {
				return snap, nil
			}
		}
	}
}

// Shutdown releases every endpoint this client owns.
func (c *ActionClient[G, R, F]) Shutdown() {
	c.goalClient.Shutdown()
	c.cancelClient.Shutdown()
	c.resultClient.Shutdown()
	c.feedbackSub.Shutdown()
	c.statusSub.Shutdown()
}
