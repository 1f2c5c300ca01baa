package action

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ros2go/ros2action/internal/logging"
	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/wireid"
)

var serverLog = logging.For("action.server")

// goalRecord is the registry entry for one goal: its payload, current
// status, and (once SendResultResponse has run for it) its stored result.
type goalRecord[G any, R any] struct {
	goal         G
	status       GoalStatus
	acceptedTime Timestamp
	result       *R
}

// AsyncActionServer layers the per-goal state machine and registry on
// top of ActionServer. The registry is ordered by GoalId so that
// SendGoalStatuses always broadcasts goals in the same deterministic
// order regardless of acceptance order.
//
// AsyncActionServer holds no internal lock of its own around the
// sequence accept -> start executing -> respond; a single owning
// goroutine is expected to drive one goal's lifecycle end to end
// rather than relying on a mutex to serialize it. The registry map
// itself is still synchronized, since ReceiveCancelRequest and
// SendGoalStatuses may race with goal lifecycle calls from other
// goroutines.
type AsyncActionServer[G any, R any, F any] struct {
	*ActionServer[G, R, F]

	mu             sync.Mutex
	order          []GoalId
	goals          map[GoalId]*goalRecord[G, R]
	resultRequests map[GoalId][]wireid.RequestId
}

// NewAsyncActionServer constructs an AsyncActionServer for the action
// mounted at name on participant p.
func NewAsyncActionServer[G any, R any, F any](
	p *rtps.LocalParticipant,
	name string,
	policies qos.ActionServerQosPolicies,
	mapping wireid.ServiceMapping,
) *AsyncActionServer[G, R, F] {
	return &AsyncActionServer[G, R, F]{
		ActionServer:   NewActionServer[G, R, F](p, name, policies, mapping),
		goals:          make(map[GoalId]*goalRecord[G, R]),
		resultRequests: make(map[GoalId][]wireid.RequestId),
	}
}

func compareGoalId(a, b GoalId) int {
	return bytes.Compare(a[:], b[:])
}

// insertOrdered inserts id into s.order maintaining ascending GoalId
// order.
func (s *AsyncActionServer[G, R, F]) insertOrdered(id GoalId) {
	i := sort.Search(len(s.order), func(i int) bool { return compareGoalId(s.order[i], id) >= 0 })
	s.order = append(s.order, GoalId{})
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = id
}

func (s *AsyncActionServer[G, R, F]) removeOrdered(id GoalId) {
	for i, g := range s.order {
		if g == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// statusSnapshotLocked builds a GoalStatusArray from the registry in
// GoalId order. Caller must hold s.mu.
func (s *AsyncActionServer[G, R, F]) statusSnapshotLocked() GoalStatusArray {
	out := make([]GoalStatusSnapshot, 0, len(s.order))
	for _, id := range s.order {
		rec := s.goals[id]
		out = append(out, GoalStatusSnapshot{
			GoalInfo: GoalInfo{GoalId: id, Stamp: rec.acceptedTime},
			Status:   rec.status,
		})
	}
	return GoalStatusArray{StatusList: out}
}

// publishStatuses re-broadcasts the full registry snapshot. Called
// after every state transition so subscribers never see a stale
// status array.
func (s *AsyncActionServer[G, R, F]) publishStatuses() error {
	s.mu.Lock()
	snapshot := s.statusSnapshotLocked()
	s.mu.Unlock()
	return s.SendGoalStatuses(snapshot)
}

// admitNewGoal checks req.GoalId against the registry: a duplicate is
// logged and discarded (no handle, no response, matching invariant 1);
// otherwise the goal is inserted with status Unknown and a handle is
// returned.
func (s *AsyncActionServer[G, R, F]) admitNewGoal(reqId wireid.RequestId, req SendGoalRequest[G]) (*NewGoalHandle[G], bool) {
	s.mu.Lock()
	if _, exists := s.goals[req.GoalId]; exists {
		s.mu.Unlock()
		serverLog.WithField("goal_id", req.GoalId).Warn("duplicate goal id submitted, discarding")
		return nil, false
	}
	s.goals[req.GoalId] = &goalRecord[G, R]{goal: req.Goal, status: StatusUnknown}
	s.insertOrdered(req.GoalId)
	s.mu.Unlock()
	return &NewGoalHandle[G]{inner: innerGoalHandle[G]{goalId: req.GoalId}, reqId: reqId}, true
}

// ReceiveNewGoal polls for the next submitted goal, non-blocking,
// skipping over any duplicate goal ids found along the way. The goal
// is inserted into the registry with status Unknown before the handle
// is returned; call AcceptGoal or RejectGoal next.
func (s *AsyncActionServer[G, R, F]) ReceiveNewGoal() (*NewGoalHandle[G], bool, error) {
	for {
		reqId, req, ok, err := s.ReceiveGoal()
		if err != nil || !ok {
			return nil, false, err
		}
		handle, admitted := s.admitNewGoal(reqId, req)
		if !admitted {
			continue
		}
		return handle, true, nil
	}
}

// AsyncReceiveNewGoal blocks until the next non-duplicate goal is
// submitted or ctx is done, skipping over any duplicate goal ids found
// along the way.
func (s *AsyncActionServer[G, R, F]) AsyncReceiveNewGoal(ctx context.Context) (*NewGoalHandle[G], G, error) {
	for {
		reqId, req, err := s.AsyncReceiveGoal(ctx)
		if err != nil {
			var zero G
			return nil, zero, err
		}
		handle, admitted := s.admitNewGoal(reqId, req)
		if !admitted {
			continue
		}
		return handle, req.Goal, nil
	}
}

// AcceptGoal transitions handle's goal from Unknown to Accepted and
// replies to the client. The goal's payload must be supplied again
// here: ReceiveNewGoal only hands back identity, keeping the decision
// of whether to accept a goal separate from learning of it. Fails with
// ErrNoSuchGoal if the registry entry is gone, or ErrWrongGoalState if
// it is no longer Unknown (e.g. this handle was already used once).
func (s *AsyncActionServer[G, R, F]) AcceptGoal(handle *NewGoalHandle[G], goal G) (*AcceptedGoalHandle[G], error) {
	id := handle.inner.goalId
	stamp := Now()

	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return nil, &ErrNoSuchGoal{GoalId: id}
	}
	if rec.status != StatusUnknown {
		s.mu.Unlock()
		return nil, &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: StatusUnknown.String()}
	}
	rec.goal = goal
	rec.status = StatusAccepted
	rec.acceptedTime = stamp
	s.mu.Unlock()

	if err := s.SendGoalResponse(handle.reqId, SendGoalResponse{Accepted: true, Stamp: stamp}); err != nil {
		return nil, err
	}
	if err := s.publishStatuses(); err != nil {
		return nil, err
	}
	return &AcceptedGoalHandle[G]{inner: handle.inner}, nil
}

// RejectGoal declines handle's goal and replies to the client, then
// prunes the registry entry ReceiveNewGoal inserted: a rejected goal
// has no further lifecycle to track, so nothing is left to leak. Fails
// with ErrNoSuchGoal if the registry entry is gone, or ErrWrongGoalState
// if it is no longer Unknown.
func (s *AsyncActionServer[G, R, F]) RejectGoal(handle *NewGoalHandle[G]) error {
	id := handle.inner.goalId

	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return &ErrNoSuchGoal{GoalId: id}
	}
	if rec.status != StatusUnknown {
		s.mu.Unlock()
		return &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: StatusUnknown.String()}
	}
	delete(s.goals, id)
	s.removeOrdered(id)
	s.mu.Unlock()

	return s.SendGoalResponse(handle.reqId, SendGoalResponse{Accepted: false, Stamp: Now()})
}

// StartExecutingGoal transitions an accepted goal to Executing.
func (s *AsyncActionServer[G, R, F]) StartExecutingGoal(handle *AcceptedGoalHandle[G]) (*ExecutingGoalHandle[G], error) {
	id := handle.inner.goalId

	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return nil, &ErrNoSuchGoal{GoalId: id}
	}
	if rec.status != StatusAccepted {
		s.mu.Unlock()
		return nil, &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: StatusAccepted.String()}
	}
	rec.status = StatusExecuting
	s.mu.Unlock()

	if err := s.publishStatuses(); err != nil {
		return nil, err
	}
	return &ExecutingGoalHandle[G]{inner: handle.inner}, nil
}

// PublishFeedback publishes a feedback sample for an executing goal.
// Only ExecutingGoalHandle carries this method, so feedback cannot be
// published for a goal that has not started. Fails with
// ErrWrongGoalState if the goal is no longer Executing, or
// ErrNoSuchGoal if absent.
func (s *AsyncActionServer[G, R, F]) PublishFeedback(handle *ExecutingGoalHandle[G], feedback F) error {
	id := handle.inner.goalId

	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return &ErrNoSuchGoal{GoalId: id}
	}
	if rec.status != StatusExecuting {
		s.mu.Unlock()
		return &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: StatusExecuting.String()}
	}
	s.mu.Unlock()

	return s.SendFeedback(id, feedback)
}

// SendResultResponse marks a goal terminal with the given end status
// and result, replies to every get_result request buffered for it, and
// re-broadcasts the status array. Before doing so it takes every
// get_result request already waiting on the wire and buffers (or, for
// goals that already have a result, answers) it. It does not wait for
// a request that has not arrived yet. Permitted from {Accepted,
// Executing, Canceling}, and from Aborted with EndAborted when no
// result has been sent yet (completing an earlier AbortExecutingGoal or
// AbortAcceptedGoal); fails with ErrWrongGoalState from any other
// status (including a terminal one that already has a result, so a
// second call never re-terminalizes a goal), or ErrNoSuchGoal if absent.
func (s *AsyncActionServer[G, R, F]) SendResultResponse(handle GoalHandle, end GoalEndStatus, result R) error {
	id := handle.GoalId()
	status := end.toGoalStatus()

	for {
		reqId, req, ok, err := s.ActionServer.ReceiveResultRequest()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := s.handleResultRequest(reqId, req); err != nil {
			serverLog.WithError(err).Warn("get_result request")
		}
	}

	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return &ErrNoSuchGoal{GoalId: id}
	}
	completesAbort := rec.status == StatusAborted && rec.result == nil && status == StatusAborted
	if rec.status != StatusAccepted && rec.status != StatusExecuting && rec.status != StatusCanceling && !completesAbort {
		s.mu.Unlock()
		return &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: "Accepted, Executing, or Canceling"}
	}
	rec.status = status
	rec.result = &result
	pending := s.resultRequests[id]
	delete(s.resultRequests, id)
	s.mu.Unlock()

	for _, reqId := range pending {
		if err := s.SendResult(reqId, GetResultResponse[R]{Status: status, Result: result}); err != nil {
			return err
		}
	}
	return s.publishStatuses()
}

// AbortExecutingGoal marks an executing goal Aborted without sending a
// result response: any get_result request already buffered for it, or
// arriving later, stays unanswered until something calls
// SendResultResponse or AbortAndRespond for the same goal (see
// DESIGN.md decision 2); AbortAndRespond below adds the convenience of
// doing both in one call.
func (s *AsyncActionServer[G, R, F]) AbortExecutingGoal(handle *ExecutingGoalHandle[G]) error {
	return s.abort(handle.inner.goalId)
}

// AbortAcceptedGoal marks an accepted-but-not-yet-executing goal
// Aborted, with the same no-result-response semantics as
// AbortExecutingGoal.
func (s *AsyncActionServer[G, R, F]) AbortAcceptedGoal(handle *AcceptedGoalHandle[G]) error {
	return s.abort(handle.inner.goalId)
}

// abort transitions a goal to Aborted. Permitted only from Executing
// or Accepted; fails with ErrWrongGoalState from any other status
// (including an already-terminal one, so a stale handle can never
// overwrite a terminal record), or ErrNoSuchGoal if absent.
func (s *AsyncActionServer[G, R, F]) abort(id GoalId) error {
	s.mu.Lock()
	rec, ok := s.goals[id]
	if !ok {
		s.mu.Unlock()
		return &ErrNoSuchGoal{GoalId: id}
	}
	if rec.status != StatusAccepted && rec.status != StatusExecuting {
		s.mu.Unlock()
		return &ErrWrongGoalState{GoalId: id, Status: rec.status, Expected: "Accepted or Executing"}
	}
	rec.status = StatusAborted
	s.mu.Unlock()

	return s.publishStatuses()
}

// AbortAndRespond aborts handle's goal and immediately answers every
// buffered get_result request with result, combining AbortExecutingGoal
// and SendResultResponse for callers that have a result ready at abort
// time. See DESIGN.md decision 2.
func (s *AsyncActionServer[G, R, F]) AbortAndRespond(handle GoalHandle, result R) error {
	return s.SendResultResponse(handle, EndAborted, result)
}

// ReceiveCancelRequest polls for the next CancelGoalRequest, evaluates
// the cancel predicate against every Accepted or Executing goal,
// transitions the matches to Canceling, and returns a CancelHandle
// describing them. Call RespondToCancelRequests with the returned
// handle to send the CancelGoalResponse.
func (s *AsyncActionServer[G, R, F]) ReceiveCancelRequest() (*CancelHandle, bool, error) {
	reqId, req, ok, err := s.ActionServer.ReceiveCancelRequest()
	if err != nil || !ok {
		return nil, false, err
	}
	handle, err := s.applyCancelRequest(reqId, req)
	if err != nil {
		return nil, false, err
	}
	return handle, true, nil
}

// AsyncReceiveCancelRequest blocks until the next CancelGoalRequest
// arrives or ctx is done, applying it the same way as
// ReceiveCancelRequest.
func (s *AsyncActionServer[G, R, F]) AsyncReceiveCancelRequest(ctx context.Context) (*CancelHandle, error) {
	reqId, req, err := s.ActionServer.AsyncReceiveCancelRequest(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyCancelRequest(reqId, req)
}

func (s *AsyncActionServer[G, R, F]) applyCancelRequest(reqId wireid.RequestId, req CancelGoalRequest) (*CancelHandle, error) {
	s.mu.Lock()
	var matched []GoalId
	for _, id := range s.order {
		rec := s.goals[id]
		if rec.status != StatusAccepted && rec.status != StatusExecuting {
			continue
		}
		if cancelPredicate(req, id, rec.acceptedTime) {
			matched = append(matched, id)
		}
	}
	for _, id := range matched {
		s.goals[id].status = StatusCanceling
	}
	s.mu.Unlock()

	if len(matched) > 0 {
		if err := s.publishStatuses(); err != nil {
			return nil, err
		}
	}
	return &CancelHandle{reqId: reqId, goals: matched, originalReq: req}, nil
}

// RespondToCancelRequests sends the CancelGoalResponse for handle,
// computing the return code from the current registry state.
func (s *AsyncActionServer[G, R, F]) RespondToCancelRequests(handle *CancelHandle) error {
	s.mu.Lock()
	infos := make([]GoalInfo, 0, len(handle.goals))
	for _, id := range handle.goals {
		if rec, ok := s.goals[id]; ok {
			infos = append(infos, GoalInfo{GoalId: id, Stamp: rec.acceptedTime})
		}
	}
	code := s.cancelReturnCodeLocked(handle, len(infos))
	s.mu.Unlock()

	return s.SendCancelResponse(handle.reqId, CancelGoalResponse{ReturnCode: code, GoalsCanceling: infos})
}

// cancelReturnCodeLocked determines the CancelReturnCode for a
// request that matched zero goals; any match at all is CancelNone.
// Caller must hold s.mu.
func (s *AsyncActionServer[G, R, F]) cancelReturnCodeLocked(handle *CancelHandle, matchCount int) CancelReturnCode {
	if matchCount > 0 {
		return CancelNone
	}
	wantId := handle.originalReq.GoalInfo.GoalId
	if !wantId.IsZero() {
		rec, ok := s.goals[wantId]
		if !ok {
			return CancelUnknownGoal
		}
		if rec.status.IsTerminal() {
			return CancelGoalTerminated
		}
	}
	return CancelRejected
}

// ReceiveResultRequest polls for the next GetResultRequest. If the
// goal is already terminal with a stored result, it answers immediately;
// otherwise the request is buffered until SendResultResponse or
// AbortAndRespond is called for that goal.
func (s *AsyncActionServer[G, R, F]) ReceiveResultRequest() (bool, error) {
	reqId, req, ok, err := s.ActionServer.ReceiveResultRequest()
	if err != nil || !ok {
		return false, err
	}
	return true, s.handleResultRequest(reqId, req)
}

// AsyncReceiveResultRequest blocks until the next GetResultRequest
// arrives or ctx is done, handling it the same way as
// ReceiveResultRequest.
func (s *AsyncActionServer[G, R, F]) AsyncReceiveResultRequest(ctx context.Context) error {
	reqId, req, err := s.ActionServer.AsyncReceiveResultRequest(ctx)
	if err != nil {
		return err
	}
	return s.handleResultRequest(reqId, req)
}

func (s *AsyncActionServer[G, R, F]) handleResultRequest(reqId wireid.RequestId, req GetResultRequest) error {
	s.mu.Lock()
	rec, ok := s.goals[req.GoalId]
	if !ok {
		s.mu.Unlock()
		return &ErrNoSuchGoal{GoalId: req.GoalId}
	}
	if rec.status.IsTerminal() && rec.result != nil {
		status, result := rec.status, *rec.result
		s.mu.Unlock()
		return s.SendResult(reqId, GetResultResponse[R]{Status: status, Result: result})
	}
	s.resultRequests[req.GoalId] = append(s.resultRequests[req.GoalId], reqId)
	s.mu.Unlock()
	return nil
}

// Goal looks up a goal's current status, returning false if it is not
// in the registry (never received, or rejected). A goal that has been
// received but not yet accepted or rejected is reported as Unknown.
func (s *AsyncActionServer[G, R, F]) Goal(id GoalId) (GoalStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.goals[id]
	if !ok {
		return StatusUnknown, false
	}
	return rec.status, true
}

// forgetTerminal removes a terminal goal from the registry. Not wired
// to any public operation: terminal goals are kept around indefinitely
// so get_result can always be answered, and nothing currently calls
// for eviction.
func (s *AsyncActionServer[G, R, F]) forgetTerminal(id GoalId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.goals[id]; ok && rec.status.IsTerminal() {
		delete(s.goals, id)
		s.removeOrdered(id)
	}
}
