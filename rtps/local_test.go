package rtps

import (
	"context"
	"testing"
	"time"

	"github.com/ros2go/ros2action/qos"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	p := NewLocalParticipant("test")
	pub := NewPublisher[string](p, "topic", qos.ServiceEndpoint())
	sub := NewSubscriber[string](p, "topic", qos.ServiceEndpoint())

	if sub.NumPublishers() != 1 {
		t.Fatalf("expected 1 publisher, got %d", sub.NumPublishers())
	}
	if pub.NumSubscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", pub.NumSubscribers())
	}

	if err := pub.Publish("hello"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.TakeBlocking(ctx)
	if err != nil {
		t.Fatalf("TakeBlocking: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestTakeNonBlockingReturnsFalseWhenEmpty(t *testing.T) {
	p := NewLocalParticipant("test")
	sub := NewSubscriber[int](p, "empty", qos.ServiceEndpoint())

	_, ok, err := sub.Take()
	if err != nil || ok {
		t.Fatalf("expected (_, false, nil), got (_, %v, %v)", ok, err)
	}
}

func TestTakeBlockingHonorsContextCancellation(t *testing.T) {
	p := NewLocalParticipant("test")
	sub := NewSubscriber[int](p, "never-published", qos.ServiceEndpoint())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sub.TakeBlocking(ctx)
	if err == nil {
		t.Fatal("expected a context-deadline error, got nil")
	}
}

func TestResolveActionTopics(t *testing.T) {
	names := ResolveActionTopics("/turtle1/rotate_absolute")
	want := "rq/turtle1/rotate_absolute/_action/send_goalRequest"
	if names.GoalRequest != want {
		t.Fatalf("got %q, want %q", names.GoalRequest, want)
	}
}
