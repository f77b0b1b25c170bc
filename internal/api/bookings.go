package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"roomledger.mini/rbl/internal/types"
)

// @Title: Book Room
// @Route: POST /api/bookings/book
// @Description: Book a room for a check-in date with an exact deposit
// @Response: BookingReceipt object
func (s *Service) HandleBookRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Guest types.AccountID `json:"guest"`
		types.BookRoomPayload
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Guest == "" || req.RoomID == "" || req.CheckInDate == "" {
		s.writeError(w, http.StatusBadRequest, "guest, room_id and check_in_date are required")
		return
	}

	receipt, err := s.ledger.BookRoom(req.Guest, req.RoomID, req.CheckInDate, req.Deposit)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.logger.Info(fmt.Sprintf("API: Booked %s for %s", req.RoomID, req.CheckInDate))
	s.writeJSON(w, http.StatusOK, receipt)
}

// @Title: Check In
// @Route: POST /api/bookings/checkin
// @Description: Mark a room occupied for a booked check-in date
// @Response: 204 No Content
func (s *Service) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.CheckInPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == "" || req.CheckInDate == "" {
		s.writeError(w, http.StatusBadRequest, "room_id and check_in_date are required")
		return
	}

	if err := s.ledger.CheckIn(req.RoomID, req.CheckInDate); err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.logger.Info(fmt.Sprintf("API: Check-in at %s for %s", req.RoomID, req.CheckInDate))
	w.WriteHeader(http.StatusNoContent)
}

// @Title: Check Out
// @Route: POST /api/bookings/checkout
// @Description: Release a room and erase the guest's booking entry
// @Response: 204 No Content
func (s *Service) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.CheckOutPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == "" || req.CheckInDate == "" || req.GuestID == "" {
		s.writeError(w, http.StatusBadRequest, "room_id, check_in_date and guest_id are required")
		return
	}

	if err := s.ledger.CheckOut(req.RoomID, req.CheckInDate, req.GuestID); err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.logger.Info(fmt.Sprintf("API: Check-out at %s for %s", req.RoomID, req.CheckInDate))
	w.WriteHeader(http.StatusNoContent)
}

// @Title: Owner Bookings
// @Route: GET /api/bookings/owner?owner=...
// @Description: List bookings across all rooms registered by an owner
// @Response: Array of BookedRoom objects
func (s *Service) HandleOwnerBookings(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'owner' query parameter")
		return
	}

	rows, err := s.ledger.BookingsForOwner(types.AccountID(owner))
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// @Title: Guest Bookings
// @Route: GET /api/bookings/guest?guest=...
// @Description: List a guest's bookings
// @Response: Array of GuestBookedRoom objects
func (s *Service) HandleGuestBookings(w http.ResponseWriter, r *http.Request) {
	guest := r.URL.Query().Get("guest")
	if guest == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'guest' query parameter")
		return
	}

	rows, err := s.ledger.BookingsForGuest(types.AccountID(guest))
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}
