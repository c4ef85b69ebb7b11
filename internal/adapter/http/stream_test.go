package adapthttp

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

// syncBuffer guards a bytes.Buffer shared with the hub's logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestQueueSubscriberOverflow(t *testing.T) {
	var logs syncBuffer
	hub := notify.NewHub(slog.New(slog.NewTextHandler(&logs, nil)))

	// Never drained, like a client that stopped reading.
	stalled := make(chan notify.Event, streamBuffer)
	hub.Subscribe(7, queueSubscriber(stalled))

	var delivered int
	hub.Subscribe(7, func(notify.Event) error {
		delivered++
		return nil
	})

	const extra = 5
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < streamBuffer+extra; i++ {
			hub.Publish(7, notify.Refresh(notify.ResourceTreats, time.Now()))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full stream queue")
	}

	if len(stalled) != streamBuffer {
		t.Errorf("expected %d queued events, got %d", streamBuffer, len(stalled))
	}
	if delivered != streamBuffer+extra {
		t.Errorf("other subscriber: expected %d events, got %d", streamBuffer+extra, delivered)
	}
	if got := strings.Count(logs.String(), errStreamOverflow.Error()); got != extra {
		t.Errorf("expected %d overflow log lines, got %d:\n%s", extra, got, logs.String())
	}
}

func TestQueueSubscriberDelivers(t *testing.T) {
	queue := make(chan notify.Event, 1)
	sub := queueSubscriber(queue)

	if err := sub(notify.Heartbeat(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sub(notify.Heartbeat(time.Now())); err != errStreamOverflow {
		t.Errorf("expected errStreamOverflow on a full queue, got %v", err)
	}
	if evt := <-queue; evt.Type != notify.EventHeartbeat {
		t.Errorf("unexpected event %+v", evt)
	}
}
