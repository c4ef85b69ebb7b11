package adapthttp

import (
	"net/http"
)

func (s *Server) handleMeasurementToday(w http.ResponseWriter, r *http.Request) {
	res, err := s.measurements.Today(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"today": res.Day, "entry": res.Today})
}

func (s *Server) handleMeasurementRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.measurements.Record(r.Context(), userFrom(r).ID, body.Value, body.Unit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"today": res.Day, "entry": res.Today, "eligibility": res.Eligibility})
}

func (s *Server) handleMeasurementRecent(w http.ResponseWriter, r *http.Request) {
	items, err := s.measurements.ListRecent(r.Context(), userFrom(r).ID, intQuery(r, "limit", 14))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleMeasurementUndoLast(w http.ResponseWriter, r *http.Request) {
	deleted, res, err := s.measurements.UndoLast(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"deleted":     deleted,
		"today":       res.Day,
		"entry":       res.Today,
		"eligibility": res.Eligibility,
	})
}

func (s *Server) handleProgressDaily(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = "kg"
	}
	points, err := s.progress.GetDaily(r.Context(), userFrom(r).ID, intQuery(r, "days", 30), unit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit, "points": points})
}
