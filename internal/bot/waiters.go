package bot

import (
	"context"
	"sync"

	"github.com/jujucrew/jubot/internal/domain"
)

// Waiters is the reply-wait registry. Selection waits register a predicate;
// every inbound message is offered to the waiters before command dispatch,
// and the oldest matching waiter consumes it. Messages no waiter wants flow
// on untouched, so an open selection never swallows unrelated traffic.
type Waiters struct {
	mu     sync.Mutex
	nextID uint64
	list   []*waiter
}

type waiter struct {
	id    uint64
	match func(domain.Message) bool
	ch    chan domain.Message
}

func NewWaiters() *Waiters {
	return &Waiters{}
}

// Offer hands msg to the oldest waiter whose predicate accepts it and
// reports whether the message was consumed.
func (w *Waiters) Offer(msg domain.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, wt := range w.list {
		if wt.match(msg) {
			w.list = append(w.list[:i], w.list[i+1:]...)
			wt.ch <- msg // buffered, never blocks
			return true
		}
	}
	return false
}

// Await blocks until a message satisfying match arrives or ctx ends. The
// waiter is always unregistered on return.
func (w *Waiters) Await(ctx context.Context, match func(domain.Message) bool) (domain.Message, error) {
	wt := &waiter{
		match: match,
		ch:    make(chan domain.Message, 1),
	}

	w.mu.Lock()
	w.nextID++
	wt.id = w.nextID
	w.list = append(w.list, wt)
	w.mu.Unlock()

	defer w.remove(wt.id)

	select {
	case m := <-wt.ch:
		return m, nil
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// Len returns the number of registered waiters.
func (w *Waiters) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}

func (w *Waiters) remove(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, wt := range w.list {
		if wt.id == id {
			w.list = append(w.list[:i], w.list[i+1:]...)
			return
		}
	}
}
