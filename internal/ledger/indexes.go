package ledger

import (
	"encoding/json"
	"fmt"

	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/types"
)

// The three indexes live in separate buckets of the KV store:
//
//	rooms:  RoomID    -> types.Room
//	owners: AccountID -> []types.RoomID (registration order, append-only)
//	guests: AccountID -> map[CheckInDate]types.RoomID
//
// A date key in a room's BookedInfo exists iff the guest's date map holds
// the mirrored entry pointing back at that room.

func (l *Ledger) getRoom(id types.RoomID) (*types.Room, error) {
	data, ok, err := l.store.Get(kv.BucketRooms, string(id))
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	if !ok {
		return nil, ErrRoomNotFound
	}
	var room types.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	if room.BookedInfo == nil {
		room.BookedInfo = make(map[types.CheckInDate]types.AccountID)
	}
	return &room, nil
}

func (l *Ledger) putRoom(room *types.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	if err := l.store.Put(kv.BucketRooms, string(room.ID), data); err != nil {
		return fmt.Errorf("store room %s: %w", room.ID, err)
	}
	return nil
}

func (l *Ledger) roomExists(id types.RoomID) (bool, error) {
	_, ok, err := l.store.Get(kv.BucketRooms, string(id))
	if err != nil {
		return false, fmt.Errorf("probe room %s: %w", id, err)
	}
	return ok, nil
}

func (l *Ledger) deleteRoom(id types.RoomID) error {
	return l.store.Delete(kv.BucketRooms, string(id))
}

// ownerRooms returns the owner's registered room ids. An owner with no
// registrations yields an empty slice, not an error.
func (l *Ledger) ownerRooms(owner types.AccountID) ([]types.RoomID, error) {
	data, ok, err := l.store.Get(kv.BucketOwners, string(owner))
	if err != nil {
		return nil, fmt.Errorf("load owner index %s: %w", owner, err)
	}
	if !ok {
		return nil, nil
	}
	var rooms []types.RoomID
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode owner index %s: %w", owner, err)
	}
	return rooms, nil
}

func (l *Ledger) appendOwnerRoom(owner types.AccountID, id types.RoomID) error {
	rooms, err := l.ownerRooms(owner)
	if err != nil {
		return err
	}
	rooms = append(rooms, id)
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("encode owner index %s: %w", owner, err)
	}
	if err := l.store.Put(kv.BucketOwners, string(owner), data); err != nil {
		return fmt.Errorf("store owner index %s: %w", owner, err)
	}
	return nil
}

// guestBookings returns the guest's date map, or nil when the guest holds
// no bookings.
func (l *Ledger) guestBookings(guest types.AccountID) (map[types.CheckInDate]types.RoomID, error) {
	data, ok, err := l.store.Get(kv.BucketGuests, string(guest))
	if err != nil {
		return nil, fmt.Errorf("load guest index %s: %w", guest, err)
	}
	if !ok {
		return nil, nil
	}
	var bookings map[types.CheckInDate]types.RoomID
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("decode guest index %s: %w", guest, err)
	}
	return bookings, nil
}

func (l *Ledger) putGuestBookings(guest types.AccountID, bookings map[types.CheckInDate]types.RoomID) error {
	// The index never retains empty placeholders: the guest entry is
	// removed entirely once its date map is empty.
	if len(bookings) == 0 {
		if err := l.store.Delete(kv.BucketGuests, string(guest)); err != nil {
			return fmt.Errorf("remove guest index %s: %w", guest, err)
		}
		return nil
	}
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode guest index %s: %w", guest, err)
	}
	if err := l.store.Put(kv.BucketGuests, string(guest), data); err != nil {
		return fmt.Errorf("store guest index %s: %w", guest, err)
	}
	return nil
}
