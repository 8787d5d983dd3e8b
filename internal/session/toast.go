package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Toast is a short-lived notification. The id is a uuid rather than a
// wall-clock value so two toasts created in the same instant never collide.
type Toast struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// ToastQueue holds the active toasts in insertion order. Each toast is
// removed exactly once, ttl after its creation, independent of any other
// toast. There is no cap and no deduplication of identical text.
type ToastQueue struct {
	mu       sync.Mutex
	ttl      time.Duration
	onExpire func(Toast)
	toasts   []Toast
	timers   map[string]*time.Timer
	closed   bool
}

// NewToastQueue creates a queue whose toasts expire after ttl. onExpire, if
// non-nil, is called once per expired toast outside the queue's lock.
func NewToastQueue(ttl time.Duration, onExpire func(Toast)) *ToastQueue {
	return &ToastQueue{
		ttl:      ttl,
		onExpire: onExpire,
		timers:   map[string]*time.Timer{},
	}
}

// Add enqueues a toast and schedules its removal.
func (q *ToastQueue) Add(text string) Toast {
	toast := Toast{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return toast
	}
	q.toasts = append(q.toasts, toast)
	q.timers[toast.ID] = time.AfterFunc(q.ttl, func() {
		q.remove(toast.ID)
	})
	return toast
}

// Active returns the currently visible toasts in insertion order.
func (q *ToastQueue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Stop cancels all pending expirations. Used at session teardown.
func (q *ToastQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
}

// remove drops exactly the toast with the given id, leaving the rest
// untouched.
func (q *ToastQueue) remove(id string) {
	q.mu.Lock()
	var expired *Toast
	kept := q.toasts[:0]
	for _, t := range q.toasts {
		if t.ID == id {
			expired = &t
		} else {
			kept = append(kept, t)
		}
	}
	q.toasts = kept
	delete(q.timers, id)
	notify := q.onExpire
	q.mu.Unlock()

	if expired != nil && notify != nil {
		notify(*expired)
	}
}
