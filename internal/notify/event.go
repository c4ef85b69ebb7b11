// Package notify routes per-user notification events from publishers to live
// stream subscribers inside one process.
package notify

import "time"

// Event types carried on the notification stream.
const (
	EventConnected   = "connected"
	EventUnreadCount = "unread_count"
	EventRefresh     = "refresh"
	EventHeartbeat   = "heartbeat"
)

// Resources named by refresh events.
const (
	ResourceNotifications = "notifications"
	ResourceMeasurements  = "measurements"
	ResourceTreats        = "treats"
)

// Event is one message delivered to a user's subscribers. It is encoded as
// a single JSON object per stream frame.
type Event struct {
	Type        string    `json:"type"`
	UnreadCount *int      `json:"unreadCount,omitempty"`
	Resource    string    `json:"resource,omitempty"`
	At          time.Time `json:"at"`
}

// Connected acknowledges a new stream with the current unread count.
func Connected(unread int, at time.Time) Event {
	return Event{Type: EventConnected, UnreadCount: &unread, At: at}
}

// UnreadCount announces a changed unread count.
func UnreadCount(unread int, at time.Time) Event {
	return Event{Type: EventUnreadCount, UnreadCount: &unread, At: at}
}

// Refresh asks clients to reload resource.
func Refresh(resource string, at time.Time) Event {
	return Event{Type: EventRefresh, Resource: resource, At: at}
}

// Heartbeat keeps idle streams alive through proxies.
func Heartbeat(at time.Time) Event {
	return Event{Type: EventHeartbeat, At: at}
}
