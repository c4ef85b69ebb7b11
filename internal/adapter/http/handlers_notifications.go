package adapthttp

import (
	"net/http"
)

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.notifications.List(r.Context(), userFrom(r).ID, intQuery(r, "limit", 20))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleUnreadCount is the polling fallback for clients whose stream failed.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.UnreadCount(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unreadCount": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := parseOptionalJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	changed, err := s.notifications.MarkRead(r.Context(), userFrom(r).ID, body.IDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "updated": changed})
}
