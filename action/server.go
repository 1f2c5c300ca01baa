package action

import (
	"context"

	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/service"
	"github.com/ros2go/ros2action/wireid"
)

// ActionServer is the stateless DDS multiplexer for one action: it owns
// the six endpoints and does request/reply and pub/sub mechanics, but
// holds no goal registry of its own. AsyncActionServer layers the
// per-goal state machine on top of it.
type ActionServer[G any, R any, F any] struct {
	name string

	goalServer   *service.Server[SendGoalRequest[G], SendGoalResponse]
	cancelServer *service.Server[CancelGoalRequest, CancelGoalResponse]
	resultServer *service.Server[GetResultRequest, GetResultResponse[R]]
	feedbackPub  rtps.Publisher[FeedbackMessage[F]]
	statusPub    rtps.Publisher[GoalStatusArray]
}

// NewActionServer constructs an ActionServer for the action mounted at
// name on participant p.
func NewActionServer[G any, R any, F any](
	p *rtps.LocalParticipant,
	name string,
	policies qos.ActionServerQosPolicies,
	mapping wireid.ServiceMapping,
) *ActionServer[G, R, F] {
	topics := rtps.ResolveActionTopics(name)
	return &ActionServer[G, R, F]{
		name:         name,
		goalServer:   service.NewServer[SendGoalRequest[G], SendGoalResponse](p, topics.GoalRequest, topics.GoalReply, policies.GoalService, mapping),
		cancelServer: service.NewServer[CancelGoalRequest, CancelGoalResponse](p, topics.CancelRequest, topics.CancelReply, policies.CancelService, mapping),
		resultServer: service.NewServer[GetResultRequest, GetResultResponse[R]](p, topics.ResultRequest, topics.ResultReply, policies.ResultService, mapping),
		feedbackPub:  rtps.NewPublisher[FeedbackMessage[F]](p, topics.Feedback, policies.FeedbackPublisher),
		statusPub:    rtps.NewPublisher[GoalStatusArray](p, topics.Status, policies.StatusPublisher),
	}
}

// Name returns the action's logical name.
func (s *ActionServer[G, R, F]) Name() string { return s.name }

// ReceiveGoal polls for the next SendGoalRequest, non-blocking.
func (s *ActionServer[G, R, F]) ReceiveGoal() (wireid.RequestId, SendGoalRequest[G], bool, error) {
	return s.goalServer.ReceiveRequest()
}

// AsyncReceiveGoal blocks until the next SendGoalRequest arrives or ctx
// is done.
func (s *ActionServer[G, R, F]) AsyncReceiveGoal(ctx context.Context) (wireid.RequestId, SendGoalRequest[G], error) {
	return s.goalServer.AsyncReceiveRequest(ctx)
}

// SendGoalResponse replies to reqId with resp.
func (s *ActionServer[G, R, F]) SendGoalResponse(reqId wireid.RequestId, resp SendGoalResponse) error {
	return s.goalServer.SendResponse(reqId, resp)
}

// ReceiveCancelRequest polls for the next CancelGoalRequest, non-blocking.
func (s *ActionServer[G, R, F]) ReceiveCancelRequest() (wireid.RequestId, CancelGoalRequest, bool, error) {
	return s.cancelServer.ReceiveRequest()
}

// AsyncReceiveCancelRequest blocks until the next CancelGoalRequest
// arrives or ctx is done.
func (s *ActionServer[G, R, F]) AsyncReceiveCancelRequest(ctx context.Context) (wireid.RequestId, CancelGoalRequest, error) {
	return s.cancelServer.AsyncReceiveRequest(ctx)
}

// SendCancelResponse replies to reqId with resp.
func (s *ActionServer[G, R, F]) SendCancelResponse(reqId wireid.RequestId, resp CancelGoalResponse) error {
	return s.cancelServer.SendResponse(reqId, resp)
}

// ReceiveResultRequest polls for the next GetResultRequest, non-blocking.
func (s *ActionServer[G, R, F]) ReceiveResultRequest() (wireid.RequestId, GetResultRequest, bool, error) {
	return s.resultServer.ReceiveRequest()
}

// AsyncReceiveResultRequest blocks until the next GetResultRequest
// arrives or ctx is done.
func (s *ActionServer[G, R, F]) AsyncReceiveResultRequest(ctx context.Context) (wireid.RequestId, GetResultRequest, error) {
	return s.resultServer.AsyncReceiveRequest(ctx)
}

// SendResult replies to reqId with resp.
func (s *ActionServer[G, R, F]) SendResult(reqId wireid.RequestId, resp GetResultResponse[R]) error {
	return s.resultServer.SendResponse(reqId, resp)
}

// SendFeedback publishes a feedback sample for goalId.
func (s *ActionServer[G, R, F]) SendFeedback(goalId GoalId, feedback F) error {
	return s.feedbackPub.Publish(FeedbackMessage[F]{GoalId: goalId, Feedback: feedback})
}

// SendGoalStatuses publishes a full status array broadcast.
func (s *ActionServer[G, R, F]) SendGoalStatuses(statuses GoalStatusArray) error {
	return s.statusPub.Publish(statuses)
}

// Shutdown releases every endpoint this server owns.
func (s *ActionServer[G, R, F]) Shutdown() {
	s.goalServer.Shutdown()
	s.cancelServer.Shutdown()
	s.resultServer.Shutdown()
	s.feedbackPub.Shutdown()
	s.statusPub.Shutdown()
}
