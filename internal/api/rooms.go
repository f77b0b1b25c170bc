package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"roomledger.mini/rbl/internal/types"
)

// @Title: Register Room
// @Route: POST /api/rooms/add
// @Description: Register a new room owned by the given account
// @Response: {"room_id": "..."}
func (s *Service) HandleAddRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Owner types.AccountID `json:"owner"`
		types.RegisterRoomPayload
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Owner == "" {
		s.writeError(w, http.StatusBadRequest, "Owner account is required")
		return
	}

	roomID, err := s.ledger.RegisterRoom(req.Owner, req.RegisterRoomPayload)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.logger.Info(fmt.Sprintf("API: Registered room %s", roomID))
	s.writeJSON(w, http.StatusOK, map[string]types.RoomID{"room_id": roomID})
}

// @Title: Available Rooms
// @Route: GET /api/rooms/available?date=...
// @Description: List rooms not booked on the given check-in date
// @Response: Array of AvailableRoom objects
func (s *Service) HandleAvailableRooms(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'date' query parameter")
		return
	}

	rooms, err := s.ledger.AvailableRooms(types.CheckInDate(date))
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rooms)
}

// @Title: Owned Rooms
// @Route: GET /api/rooms/owned?owner=...
// @Description: List rooms registered by an owner, in registration order
// @Response: Array of RegisteredRoom objects
func (s *Service) HandleOwnedRooms(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'owner' query parameter")
		return
	}

	rooms, err := s.ledger.RoomsRegisteredBy(types.AccountID(owner))
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rooms)
}

// @Title: Room Status
// @Route: GET /api/rooms/status?room_id=...
// @Description: Report whether the room's coarse status is Available
// @Response: {"room_id": "...", "available": true}
func (s *Service) HandleRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'room_id' query parameter")
		return
	}

	available, err := s.ledger.IsAvailable(types.RoomID(roomID))
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id":   roomID,
		"available": available,
	})
}
