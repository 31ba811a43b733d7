package notify

import (
	"context"
	"sync"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// subscriberBuffer bounds each subscriber's backlog; a slow subscriber drops
// rather than blocking the publisher (spec.md §7: "delivery failures to a
// subscriber drop that subscriber").
const subscriberBuffer = 256

// Publisher fans published notifications out to any number of live
// subscribers, each receiving only notifications published after it
// subscribed, in non-decreasing sent_at (i.e. publish) order.
type Publisher struct {
	mu   sync.Mutex
	subs map[int]chan core.Notification
	next int
}

// NewPublisher constructs an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int]chan core.Notification)}
}

// Subscribe registers a new listener and returns a channel of notifications
// published from this point on, plus an unsubscribe func. The channel is
// closed when ctx is done or Unsubscribe is called.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan core.Notification, func()) {
	p.mu.Lock()
	id := p.next
	p.next++
	ch := make(chan core.Notification, subscriberBuffer)
	p.subs[id] = ch
	p.mu.Unlock()

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe
}

// Publish delivers n to every current subscriber in FIFO order. A
// subscriber whose buffer is full is dropped outright rather than blocking
// the publisher or the other subscribers (spec.md §7: delivery failures to
// a subscriber drop that subscriber; the client reconnects and resumes by
// last-seen id).
func (p *Publisher) Publish(n core.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.subs {
		select {
		case ch <- n:
		default:
			logging.Get(logging.CategoryNotify).Warn("subscriber %d buffer full, dropping subscriber", id)
			delete(p.subs, id)
			close(ch)
		}
	}
}

// SubscriberCount reports the number of live subscribers (diagnostics).
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
