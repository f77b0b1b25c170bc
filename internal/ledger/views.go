package ledger

import (
	"encoding/json"
	"fmt"

	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/types"
)

// Read-only projections over the indexes. None of these mutate state.

// AvailableRooms scans the registry and returns every room whose booking
// map does not contain date. Result order follows the underlying store.
func (l *Ledger) AvailableRooms(date types.CheckInDate) ([]types.AvailableRoom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pairs, err := l.store.List(kv.BucketRooms)
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}

	available := []types.AvailableRoom{}
	for _, p := range pairs {
		var room types.Room
		if err := json.Unmarshal(p.Value, &room); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", p.Key, err)
		}
		if _, booked := room.BookedInfo[date]; booked {
			continue
		}
		available = append(available, types.AvailableRoom{
			RoomID:      room.ID,
			OwnerID:     room.OwnerID,
			Name:        room.Name,
			Image:       room.Image,
			Beds:        room.Beds,
			Description: room.Description,
			Location:    room.Location,
			Price:       room.Price,
		})
	}
	return available, nil
}

// RoomsRegisteredBy returns the owner's rooms in registration order. An
// owner with no registrations gets an empty slice.
func (l *Ledger) RoomsRegisteredBy(owner types.AccountID) ([]types.RegisteredRoom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.ownerRooms(owner)
	if err != nil {
		return nil, err
	}

	registered := []types.RegisteredRoom{}
	for _, id := range ids {
		room, err := l.getRoom(id)
		if err != nil {
			return nil, err
		}
		registered = append(registered, types.RegisteredRoom{
			Name:        room.Name,
			Image:       room.Image,
			Beds:        room.Beds,
			Description: room.Description,
			Location:    room.Location,
			Price:       room.Price,
			Status:      room.Status,
		})
	}
	return registered, nil
}

// BookingsForOwner flattens every booking on the owner's rooms into one
// row per (room, date) pair. Row status is display-only: Stay for the row
// matching the room's current stay date, Available for every other row.
func (l *Ledger) BookingsForOwner(owner types.AccountID) ([]types.BookedRoom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.ownerRooms(owner)
	if err != nil {
		return nil, err
	}

	booked := []types.BookedRoom{}
	for _, id := range ids {
		room, err := l.getRoom(id)
		if err != nil {
			return nil, err
		}
		for date, guest := range room.BookedInfo {
			status := types.Available()
			if room.Status.Kind == types.StatusStay && room.Status.CheckInDate == date {
				status = types.Stay(date)
			}
			booked = append(booked, types.BookedRoom{
				RoomID:      id,
				Name:        room.Name,
				CheckInDate: date,
				GuestID:     guest,
				Status:      status,
			})
		}
	}
	return booked, nil
}

// BookingsForGuest returns the guest's bookings. A guest with none gets
// an empty slice.
func (l *Ledger) BookingsForGuest(guest types.AccountID) ([]types.GuestBookedRoom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bookings, err := l.guestBookings(guest)
	if err != nil {
		return nil, err
	}

	rows := []types.GuestBookedRoom{}
	for date, roomID := range bookings {
		room, err := l.getRoom(roomID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, types.GuestBookedRoom{
			OwnerID:     room.OwnerID,
			RoomName:    room.Name,
			CheckInDate: date,
		})
	}
	return rows, nil
}
