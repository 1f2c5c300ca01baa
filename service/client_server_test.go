package service

import (
	"context"
	"testing"
	"time"

	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/wireid"
)

type addRequest struct{ A, B int }
type addResponse struct{ Sum int }

func TestSendReceiveRoundTrip(t *testing.T) {
	p := rtps.NewLocalParticipant("test")
	policies := qos.ServiceEndpoint()
	client := NewClient[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)
	server := NewServer[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)

	reqID, err := client.SendRequest(addRequest{A: 2, B: 3})
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	gotID, gotReq, ok, err := server.ReceiveRequest()
	if err != nil || !ok {
		t.Fatalf("ReceiveRequest: ok=%v err=%v", ok, err)
	}
	if gotID != reqID {
		t.Fatalf("request id mismatch: %v != %v", gotID, reqID)
	}

	if err := server.SendResponse(gotID, addResponse{Sum: gotReq.A + gotReq.B}); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	resp, err := client.ReceiveResponse(reqID)
	if err != nil {
		t.Fatalf("ReceiveResponse: %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response, got nil")
	}
	if resp.Sum != 5 {
		t.Fatalf("got sum %d, want 5", resp.Sum)
	}
}

func TestReceiveResponseDiscardsUnmatchedReplies(t *testing.T) {
	p := rtps.NewLocalParticipant("test")
	policies := qos.ServiceEndpoint()
	client := NewClient[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)
	server := NewServer[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)

	firstID, _ := client.SendRequest(addRequest{A: 1, B: 1})
	secondID, _ := client.SendRequest(addRequest{A: 2, B: 2})

	id1, _, _, _ := server.ReceiveRequest()
	_ = server.SendResponse(id1, addResponse{Sum: 2})
	id2, _, _, _ := server.ReceiveRequest()
	_ = server.SendResponse(id2, addResponse{Sum: 4})

	// Ask for the second response first; ReceiveResponse must discard
	// the first (unmatched) reply along the way.
	resp, err := client.ReceiveResponse(secondID)
	if err != nil {
		t.Fatalf("ReceiveResponse: %v", err)
	}
	if resp == nil || resp.Sum != 4 {
		t.Fatalf("got %+v, want Sum=4", resp)
	}

	// The first reply was discarded in the drain above: asking for it
	// now must return nothing, since a response is delivered at most once.
	resp, err = client.ReceiveResponse(firstID)
	if err != nil {
		t.Fatalf("ReceiveResponse: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected discarded reply to be unrecoverable, got %+v", resp)
	}
}

func TestAsyncCallService(t *testing.T) {
	p := rtps.NewLocalParticipant("test")
	policies := qos.ServiceEndpoint()
	client := NewClient[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)
	server := NewServer[addRequest, addResponse](p, "req", "resp", policies, wireid.Basic)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		id, req, err := server.AsyncReceiveRequest(ctx)
		if err != nil {
			return
		}
		_ = server.SendResponse(id, addResponse{Sum: req.A + req.B})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := client.AsyncCallService(ctx, addRequest{A: 10, B: 20})
	if err != nil {
		t.Fatalf("AsyncCallService: %v", err)
	}
	if resp.Sum != 30 {
		t.Fatalf("got sum %d, want 30", resp.Sum)
	}
}
