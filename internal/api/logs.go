package api

import (
	"net/http"
	"strconv"
)

// @Title: Recent Logs
// @Route: GET /api/logs?n=...
// @Description: Return the most recent log messages, newest first
// @Response: Array of Message objects
func (s *Service) HandleLogs(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid 'n' query parameter")
			return
		}
		n = parsed
	}
	s.writeJSON(w, http.StatusOK, s.logger.GetRecent(n))
}

// @Title: Recent Payouts
// @Route: GET /api/payouts?n=...
// @Description: Return recently recorded payouts, newest first
// @Response: Array of Record objects
func (s *Service) HandlePayouts(w http.ResponseWriter, r *http.Request) {
	if s.payouts == nil {
		s.writeError(w, http.StatusNotImplemented, "Payout recording not enabled on this node")
		return
	}

	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid 'n' query parameter")
			return
		}
		n = parsed
	}
	s.writeJSON(w, http.StatusOK, s.payouts.Recent(n))
}
