package push

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-process topic hub. Publish never blocks: a subscriber
// whose buffer is full misses the event and is dropped.
type Registry struct {
	mu         sync.RWMutex
	topics     map[string]map[*Subscription]struct{}
	bufferSize int
	closed     bool
}

var _ Channel = (*Registry)(nil)

func NewRegistry(bufferSize int) *Registry {
	return &Registry{
		topics:     make(map[string]map[*Subscription]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

type Subscription struct {
	reg    *Registry
	topics []string
	ch     chan Event
	once   sync.Once
}

func (s *Subscription) Events() <-chan Event { return s.ch }

// Close detaches the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.reg.remove(s)
}

// Subscribe attaches to topics until ctx is done or Close is called.
func (r *Registry) Subscribe(ctx context.Context, topics ...string) *Subscription {
	sub := &Subscription{reg: r, topics: topics, ch: make(chan Event, r.bufferSize)}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	for _, t := range topics {
		if r.topics[t] == nil {
			r.topics[t] = make(map[*Subscription]struct{})
		}
		r.topics[t][sub] = struct{}{}
	}
	r.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub
}

// Publish delivers ev to every subscriber of topic and returns how many got it.
func (r *Registry) Publish(topic string, ev Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0
	}

	delivered := 0
	for sub := range r.topics[topic] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			go sub.Close()
		}
	}
	return delivered
}

func (r *Registry) PushToUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.isClosed() {
		return ErrClosed
	}
	r.Publish(UserTopic(userID), ev)
	return nil
}

func (r *Registry) PushToRole(ctx context.Context, role string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.isClosed() {
		return ErrClosed
	}
	r.Publish(RoleTopic(role), ev)
	return nil
}

// Subscribers returns the number of live subscriptions on topic.
func (r *Registry) Subscribers(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	for _, subs := range r.topics {
		for sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
		}
	}
	clear(r.topics)
	return nil
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Registry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range sub.topics {
		if subs, ok := r.topics[t]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(r.topics, t)
			}
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}
