// Package rtps defines the narrow set of interfaces the action layer
// assumes of its DDS substrate (participant, publisher, subscriber)
// and ships one in-process implementation of them,
// LocalParticipant, backed by buffered Go channels. A real DDS binding
// is out of scope; this package exists so the rest of the module is
// runnable and testable without one.
//
// LocalParticipant does not negotiate QoS, discover remote
// participants, or serialize with CDR. It is scaffolding, not a DDS
// implementation.
package rtps

import (
	"context"
	"fmt"

	"github.com/ros2go/ros2action/qos"
)

// WriteError is returned when a publish could not be delivered, e.g.
// because a reliable writer's history is full and MaxBlockingTime
// elapsed. It carries the undelivered payload back to the caller.
type WriteError[T any] struct {
	Payload T
	Reason  string
}

func (e *WriteError[T]) Error() string {
	return fmt.Sprintf("rtps: write failed: %s", e.Reason)
}

// ReadError is returned when a subscription could not produce a
// sample, e.g. because the underlying substrate shut down or a
// sample failed to deserialize.
type ReadError struct {
	Reason string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("rtps: read failed: %s", e.Reason)
}

// Publisher writes samples of type T to a topic.
type Publisher[T any] interface {
	// Publish writes v. It may block up to the topic's
	// MaxBlockingTime under reliable-writer backpressure.
	Publish(v T) error
	// NumSubscribers reports how many live subscribers are currently
	// matched to this publisher's topic (used by WaitForServer-style
	// readiness checks).
	NumSubscribers() int
	// Shutdown releases resources held by this publisher. It does not
	// affect other publishers or subscribers on the same topic.
	Shutdown()
}

// Subscriber reads samples of type T from a topic.
type Subscriber[T any] interface {
	// Take returns the oldest buffered sample, if any, without
	// blocking.
	Take() (T, bool, error)
	// TakeBlocking blocks until a sample is available or ctx is done.
	TakeBlocking(ctx context.Context) (T, error)
	// NumPublishers reports how many live publishers are currently
	// matched to this subscriber's topic.
	NumPublishers() int
	// Shutdown releases resources held by this subscriber.
	Shutdown()
}

// Participant is the minimal DDS domain participant surface: a name.
// Topics, publishers, and subscribers are created against a concrete
// *LocalParticipant with NewPublisher and NewSubscriber, not through
// this interface.
type Participant interface {
	// Name identifies the participant for logging.
	Name() string
}

// Policies recovers the qos.Policies a topic was created with, used
// by callers that want to log or assert on the effective profile.
type Policies = qos.Policies
