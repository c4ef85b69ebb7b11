package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Subscriber receives events for one user. A returned error is logged by the
// hub and never reaches the publisher.
type Subscriber func(Event) error

type subscription struct {
	fn Subscriber
}

// Hub is an in-process registry of per-user subscribers. The zero value is
// not usable; construct with NewHub.
type Hub struct {
	mu     sync.Mutex
	subs   map[int64][]*subscription
	logger *slog.Logger
}

// NewHub creates an empty hub. A nil logger falls back to slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[int64][]*subscription),
		logger: logger,
	}
}

// Subscribe registers fn for userID and returns a function that removes
// exactly this registration. Calling it more than once is a no-op.
func (h *Hub) Subscribe(userID int64, fn Subscriber) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], sub)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(userID, sub) })
	}
}

func (h *Hub) remove(userID int64, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[userID]
	for i, s := range list {
		if s == sub {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.subs, userID)
		return
	}
	h.subs[userID] = list
}

// Publish delivers evt to every subscriber of userID in registration order.
// Subscribers are invoked outside the lock on a snapshot, so they may
// unsubscribe (or subscribe) from inside the callback.
func (h *Hub) Publish(userID int64, evt Event) {
	h.mu.Lock()
	snapshot := append([]*subscription(nil), h.subs[userID]...)
	h.mu.Unlock()

	for _, sub := range snapshot {
		if err := h.deliver(sub, evt); err != nil {
			h.logger.Warn("notify: subscriber failed",
				"user_id", userID, "event", evt.Type, "error", err)
		}
	}
}

func (h *Hub) deliver(sub *subscription, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sub.fn(evt)
}

// SubscriberCount reports how many subscriptions userID currently has.
func (h *Hub) SubscriberCount(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// HasUser reports whether the registry holds an entry for userID.
func (h *Hub) HasUser(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[userID]
	return ok
}

// Publisher is what application services publish through: the local hub, or
// a broker that fans out across processes.
type Publisher interface {
	Publish(ctx context.Context, userID int64, evt Event) error
}

// Local adapts a Hub to Publisher for single-process deployments.
type Local struct {
	Hub *Hub
}

// Publish delivers directly to the in-process hub.
func (l Local) Publish(_ context.Context, userID int64, evt Event) error {
	l.Hub.Publish(userID, evt)
	return nil
}
