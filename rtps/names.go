package rtps

import "fmt"

// ActionTopicNames resolves an action's logical name into the eight
// concrete DDS topic names ROS 2 derives from it.
type ActionTopicNames struct {
	GoalRequest    string
	GoalReply      string
	CancelRequest  string
	CancelReply    string
	ResultRequest  string
	ResultReply    string
	Feedback       string
	Status         string
}

// ResolveActionTopics builds the wire topic names for an action
// mounted at name (e.g. "/turtle1/rotate_absolute").
func ResolveActionTopics(name string) ActionTopicNames {
	base := name + "/_action"
	return ActionTopicNames{
		GoalRequest:   fmt.Sprintf("rq%s/send_goalRequest", base),
		GoalReply:     fmt.Sprintf("rr%s/send_goalReply", base),
		CancelRequest: fmt.Sprintf("rq%s/cancel_goalRequest", base),
		CancelReply:   fmt.Sprintf("rr%s/cancel_goalReply", base),
		ResultRequest: fmt.Sprintf("rq%s/get_resultRequest", base),
		ResultReply:   fmt.Sprintf("rr%s/get_resultReply", base),
		Feedback:      fmt.Sprintf("rt%s/feedback", base),
		Status:        fmt.Sprintf("rt%s/status", base),
	}
}
