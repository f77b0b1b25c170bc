package api

import (
	"net/http"

	"roomledger.mini/rbl/internal/types"
)

// @Title: Health Check
// @Route: GET /api/health
// @Description: Liveness probe
// @Response: {"status": "ok"}
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Title: Version
// @Route: GET /api/version
// @Description: Report node version and build time
// @Response: {"version": "...", "build_time": "..."}
func (s *Service) HandleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":    types.Version,
		"build_time": types.BuildTime,
	})
}
