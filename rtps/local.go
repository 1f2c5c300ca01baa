package rtps

import (
	"context"
	"sync"
	"time"

	"github.com/ros2go/ros2action/internal/logging"
	"github.com/ros2go/ros2action/qos"
)

var log = logging.For("rtps")

// LocalParticipant is an in-process Participant: every topic it hosts
// is a set of buffered channels shared by whichever Publisher/Subscriber
// pairs are created against it. It is safe for concurrent use by
// multiple goroutines, matching the thread-safety the action layer
// assumes of distinct DDS endpoints.
type LocalParticipant struct {
	name string

	mu     sync.Mutex
	topics map[string]any // topic name -> *localTopic[T], type-erased
}

// NewLocalParticipant creates a participant named name. The name is
// used only for logging.
func NewLocalParticipant(name string) *LocalParticipant {
	return &LocalParticipant{name: name, topics: make(map[string]any)}
}

func (p *LocalParticipant) Name() string { return p.name }

// topicFor returns the *localTopic[T] registered under name, creating
// it with policies if this is the first reference. Go cannot express
// generic methods on a concrete receiver, so this lives as a free
// function keyed by the type parameter instead of a Participant method.
func topicFor[T any](p *LocalParticipant, name string, policies qos.Policies) *localTopic[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.topics[name]; ok {
		return existing.(*localTopic[T])
	}
	t := newLocalTopic[T](name, policies)
	p.topics[name] = t
	return t
}

// NewPublisher creates a Publisher[T] for the named topic on p,
// creating the topic (with the given policies) if this is the first
// reference to it.
func NewPublisher[T any](p *LocalParticipant, name string, policies qos.Policies) Publisher[T] {
	t := topicFor[T](p, name, policies)
	return t.newPublisher()
}

// NewSubscriber creates a Subscriber[T] for the named topic on p,
// creating the topic (with the given policies) if this is the first
// reference to it.
func NewSubscriber[T any](p *LocalParticipant, name string, policies qos.Policies) Subscriber[T] {
	t := topicFor[T](p, name, policies)
	return t.newSubscriber()
}

type localTopic[T any] struct {
	name     string
	policies qos.Policies

	mu          sync.Mutex
	subscribers []*localSubscriber[T]
	publishers  int
}

func newLocalTopic[T any](name string, policies qos.Policies) *localTopic[T] {
	return &localTopic[T]{name: name, policies: policies}
}

func (t *localTopic[T]) depth() int {
	if t.policies.History == qos.KeepLast && t.policies.Depth > 0 {
		return t.policies.Depth
	}
	return 16
}

func (t *localTopic[T]) newPublisher() *localPublisher[T] {
	t.mu.Lock()
	t.publishers++
	t.mu.Unlock()
	return &localPublisher[T]{topic: t}
}

func (t *localTopic[T]) newSubscriber() *localSubscriber[T] {
	sub := &localSubscriber[T]{
		topic: t,
		ch:    make(chan T, t.depth()),
		done:  make(chan struct{}),
	}
	t.mu.Lock()
	t.subscribers = append(t.subscribers, sub)
	t.mu.Unlock()
	return sub
}

func (t *localTopic[T]) removeSubscriber(s *localSubscriber[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, sub := range t.subscribers {
		if sub == s {
			t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
			return
		}
	}
}

func (t *localTopic[T]) publish(v T) error {
	t.mu.Lock()
	subs := make([]*localSubscriber[T], len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.Unlock()

	blockingTime := t.policies.MaxBlockingTime
	if blockingTime <= 0 {
		blockingTime = 50 * time.Millisecond
	}

	for _, sub := range subs {
		select {
		case sub.ch <- v:
		default:
			if t.policies.Reliability == qos.Reliable {
				// reliable writer: wait briefly for the reader to drain
				// before dropping the oldest sample, matching KeepLast.
				timer := time.NewTimer(blockingTime)
				select {
				case sub.ch <- v:
					timer.Stop()
				case <-timer.C:
					select {
					case <-sub.ch:
					default:
					}
					select {
					case sub.ch <- v:
					default:
						log.WithField("topic", t.name).Warn("dropped sample for slow reliable subscriber")
					}
				}
			} else {
				// best-effort writer: drop the oldest sample to make room.
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- v:
				default:
				}
			}
		}
	}
	return nil
}

type localPublisher[T any] struct {
	topic *localTopic[T]
}

func (p *localPublisher[T]) Publish(v T) error {
	return p.topic.publish(v)
}

func (p *localPublisher[T]) NumSubscribers() int {
	p.topic.mu.Lock()
	defer p.topic.mu.Unlock()
	return len(p.topic.subscribers)
}

func (p *localPublisher[T]) Shutdown() {
	p.topic.mu.Lock()
	if p.topic.publishers > 0 {
		p.topic.publishers--
	}
	p.topic.mu.Unlock()
}

type localSubscriber[T any] struct {
	topic *localTopic[T]
	ch    chan T
	done  chan struct{}
}

func (s *localSubscriber[T]) Take() (T, bool, error) {
	select {
	case v := <-s.ch:
		return v, true, nil
	default:
		var zero T
		return zero, false, nil
	}
}

func (s *localSubscriber[T]) TakeBlocking(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-s.done:
		var zero T
		return zero, &ReadError{Reason: "subscriber shut down"}
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (s *localSubscriber[T]) NumPublishers() int {
	s.topic.mu.Lock()
	defer s.topic.mu.Unlock()
	return s.topic.publishers
}

func (s *localSubscriber[T]) Shutdown() {
	s.topic.removeSubscriber(s)
	close(s.done)
}
