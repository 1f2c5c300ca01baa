package action

// cancelPredicate evaluates the four-quadrant cancel-matching table
// for a single goal's id and accepted_time against the (goal_id,
// stamp) pair carried by a CancelGoalRequest.
//
// Only goals currently in {Accepted, Executing} are ever eligible;
// this function does not itself check status — callers filter on
// status first (see (*AsyncActionServer).ReceiveCancelRequest).
//
// Timestamp comparison is strict less-than: a goal accepted exactly at
// the requested stamp is not matched, over the ROS 2 docs' "at or
// before" wording (see DESIGN.md decision 4).
func cancelPredicate(req CancelGoalRequest, goalId GoalId, acceptedTime Timestamp) bool {
	wantId := req.GoalInfo.GoalId
	wantStamp := req.GoalInfo.Stamp

	switch {
	case wantId.IsZero() && wantStamp.IsZero():
		return true
	case wantId.IsZero() && !wantStamp.IsZero():
		return acceptedTime.Before(wantStamp)
	case !wantId.IsZero() && wantStamp.IsZero():
		return goalId == wantId
	default:
		return goalId == wantId || acceptedTime.Before(wantStamp)
	}
}
