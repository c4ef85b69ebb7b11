package adapthttp

import (
	"net/http"
)

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	e, err := s.treats.ComputeEligibility(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seed string `json:"seed"`
	}
	if err := parseOptionalJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spin, err := s.treats.Spin(r.Context(), userFrom(r).ID, body.Seed)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"spin": spin})
}

func (s *Server) handleSpins(w http.ResponseWriter, r *http.Request) {
	spins, err := s.treats.ListSpins(r.Context(), userFrom(r).ID, intQuery(r, "limit", 20))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": spins})
}

func (s *Server) handleSpinReplay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	replay, err := s.treats.Replay(r.Context(), userFrom(r).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replay)
}

func (s *Server) handleBonusComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	spin, err := s.treats.CompleteBonus(r.Context(), userFrom(r).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spin": spin})
}

func (s *Server) handleTreatItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.treats.ListItems(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddTreatItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		PhotoURL string `json:"photoUrl"`
		KcalHint *int   `json:"kcalHint"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := s.treats.AddItem(r.Context(), userFrom(r).ID, body.Name, body.PhotoURL, body.KcalHint)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (s *Server) handleDeleteTreatItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.treats.DeleteItem(r.Context(), userFrom(r).ID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
