package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

// streamBuffer bounds the events queued for one slow client.
const streamBuffer = 32

var errStreamOverflow = errors.New("stream buffer full")

// queueSubscriber feeds events into queue without blocking the publisher.
// A full queue is reported to the hub as a delivery failure.
func queueSubscriber(queue chan<- notify.Event) notify.Subscriber {
	return func(evt notify.Event) error {
		select {
		case queue <- evt:
			return nil
		default:
			return errStreamOverflow
		}
	}
}

// handleNotificationStream serves live notification events as
// text/event-stream. The connection stays open until the client leaves or a
// write fails; there is no server-side reconnect.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r).ID
	ctx := r.Context()

	// Subscribe before reading the count so nothing published in between is
	// lost; early events wait in the queue behind the connected frame.
	queue := make(chan notify.Event, streamBuffer)
	unsubscribe := s.hub.Subscribe(userID, queueSubscriber(queue))

	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		unsubscribe()
		s.writeServiceError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(s.opts.StreamHeartbeat)
	var once sync.Once
	closeStream := func() {
		once.Do(func() {
			ticker.Stop()
			unsubscribe()
			s.logger.Debug("notification stream closed", "user_id", userID)
		})
	}
	defer closeStream()

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", s.opts.StreamRetry.Milliseconds()); err != nil {
		return
	}
	if err := writeEvent(w, rc, notify.Connected(unread, time.Now())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-queue:
			if err := writeEvent(w, rc, evt); err != nil {
				closeStream()
				return
			}
		case now := <-ticker.C:
			if err := writeEvent(w, rc, notify.Heartbeat(now)); err != nil {
				closeStream()
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, evt notify.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return rc.Flush()
}
