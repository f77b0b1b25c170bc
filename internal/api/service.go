package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"roomledger.mini/rbl/internal/chain"
	"roomledger.mini/rbl/internal/ledger"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/settle"
)

// Snapshotter is the subset of the persistent store the backup and
// snapshot endpoints need. The in-memory store does not implement it;
// a Service built over one serves those endpoints as unavailable.
type Snapshotter interface {
	BackupCurrent(maxBackups int) (string, error)
	ExportSnapshot() ([]byte, error)
	ImportSnapshot(data []byte, maxBackups int) (string, error)
}

// Service handles API requests
type Service struct {
	ledger  *ledger.Ledger
	app     *chain.App
	snaps   Snapshotter
	payouts *settle.Recorder
	logger  *logger.Logger
}

// NewService creates a new API service. snaps and payouts may be nil.
func NewService(l *ledger.Ledger, app *chain.App, snaps Snapshotter, payouts *settle.Recorder, log *logger.Logger) *Service {
	return &Service{
		ledger:  l,
		app:     app,
		snaps:   snaps,
		payouts: payouts,
		logger:  log,
	}
}

// writeJSON writes a JSON response
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeLedgerError maps ledger error kinds to HTTP status codes.
func (s *Service) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrRoomNotFound),
		errors.Is(err, ledger.ErrGuestNotFound),
		errors.Is(err, ledger.ErrBookingNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateRoom),
		errors.Is(err, ledger.ErrDateAlreadyBooked),
		errors.Is(err, ledger.ErrDuplicateBooking),
		errors.Is(err, ledger.ErrDateNotBooked):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrIncorrectDeposit):
		s.writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ledger.ErrInvalidRoomName):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
