// Package ledger implements the booking ledger at the heart of rbl: the
// room registry, the owner and guest indexes kept mutually consistent
// with it, the per-room usage-status transitions, and the settlement
// step that pays the owner when a booking commits.
//
// Every mutating operation runs under a single mutex and either fully
// applies or fully fails; a room record, its owner-index entry, and the
// guest's date map form one update unit. The fund transfer is the one
// exception by design: booking state commits first, the payout is
// dispatched after, and a payout failure is a warning on the receipt,
// never a rollback. An occupied room with a possibly-unpaid owner beats
// a paid-for room that cannot be booked.
package ledger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

// Transferer moves funds to an account. Completion is not observable by
// the ledger synchronously; implementations may queue the transfer and
// report failures through their own channels. An error returned here is
// recorded as a payout warning, not a booking failure.
type Transferer interface {
	Transfer(to types.AccountID, amount types.Amount) error
}

// Ledger owns the three booking indexes stored in the KV store.
type Ledger struct {
	mu       sync.Mutex
	store    kv.Store
	transfer Transferer
	log      *logger.Logger
}

// New creates a Ledger over the given store and transfer primitive.
// log may be nil.
func New(store kv.Store, transfer Transferer, log *logger.Logger) *Ledger {
	return &Ledger{
		store:    store,
		transfer: transfer,
		log:      log,
	}
}

func (l *Ledger) logWarning(format string, args ...interface{}) {
	if l.log != nil {
		l.log.Warning(fmt.Sprintf(format, args...))
	}
}

// MakeRoomID derives the deterministic room identifier from the owner
// account and room name. The '/' separator keeps distinct (owner, name)
// pairs from colliding; account identifiers never contain '/'.
func MakeRoomID(owner types.AccountID, name string) types.RoomID {
	return types.RoomID(string(owner) + "/" + name)
}

// RegisterRoom adds a new room owned by owner and records it in the
// owner index. Registering an id that already exists fails with
// ErrDuplicateRoom; a priced room is never silently overwritten.
func (l *Ledger) RegisterRoom(owner types.AccountID, spec types.RegisterRoomPayload) (types.RoomID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if spec.Name == "" || strings.Contains(spec.Name, "/") {
		return "", ErrInvalidRoomName
	}

	id := MakeRoomID(owner, spec.Name)

	exists, err := l.roomExists(id)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateRoom
	}

	room := &types.Room{
		ID:           id,
		OwnerID:      owner,
		Name:         spec.Name,
		Image:        spec.Image,
		Beds:         spec.Beds,
		Description:  spec.Description,
		Location:     spec.Location,
		Price:        spec.Price,
		CheckInTime:  spec.CheckInTime,
		CheckOutTime: spec.CheckOutTime,
		Status:       types.Available(),
		BookedInfo:   make(map[types.CheckInDate]types.AccountID),
	}

	if err := l.putRoom(room); err != nil {
		return "", err
	}
	if err := l.appendOwnerRoom(owner, id); err != nil {
		// Keep registry and owner index consistent: back out the room.
		_ = l.deleteRoom(id)
		return "", err
	}

	return id, nil
}

// BookRoom reserves roomID for date on behalf of guest, validating the
// attached deposit against the room price exactly, then mirrors the
// booking into the guest index and dispatches the payout to the owner.
// Booking state is authoritative once committed; a transfer failure is
// surfaced as PayoutWarning on the receipt.
func (l *Ledger) BookRoom(guest types.AccountID, roomID types.RoomID, date types.CheckInDate, deposit types.Amount) (*types.BookingReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.getRoom(roomID)
	if err != nil {
		return nil, err
	}

	if deposit != room.Price {
		return nil, ErrIncorrectDeposit
	}

	if _, booked := room.BookedInfo[date]; booked {
		return nil, ErrDateAlreadyBooked
	}

	bookings, err := l.guestBookings(guest)
	if err != nil {
		return nil, err
	}
	if _, held := bookings[date]; held {
		return nil, ErrDuplicateBooking
	}

	// Commit the room side first, then mirror into the guest index.
	room.BookedInfo[date] = guest
	if err := l.putRoom(room); err != nil {
		return nil, err
	}

	if bookings == nil {
		bookings = make(map[types.CheckInDate]types.RoomID)
	}
	bookings[date] = roomID
	if err := l.putGuestBookings(guest, bookings); err != nil {
		// Back out the room-side entry so no half-booking survives.
		delete(room.BookedInfo, date)
		_ = l.putRoom(room)
		return nil, err
	}

	receipt := &types.BookingReceipt{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		CheckInDate: date,
		GuestID:     guest,
		OwnerID:     room.OwnerID,
		Amount:      deposit,
	}

	// State is committed; the transfer is dispatched last because it is
	// an irrevocable external side effect that cannot be rolled back.
	if err := l.transfer.Transfer(room.OwnerID, deposit); err != nil {
		receipt.PayoutWarning = err.Error()
		l.logWarning("payout to %s for booking %s failed: %v", room.OwnerID, receipt.ID, err)
	}

	return receipt, nil
}

// CheckIn marks the room occupied for date. The date must hold a booking;
// a stay with no backing booking has no meaning in a ledger that settles
// payment at booking time.
func (l *Ledger) CheckIn(roomID types.RoomID, date types.CheckInDate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.getRoom(roomID)
	if err != nil {
		return err
	}

	if _, booked := room.BookedInfo[date]; !booked {
		return ErrDateNotBooked
	}

	room.Status = types.Stay(date)
	return l.putRoom(room)
}

// CheckOut releases the room: the date leaves the room's booking map, the
// status returns to Available, and the guest's mirrored entry is erased.
// All three updates apply together or not at all.
func (l *Ledger) CheckOut(roomID types.RoomID, date types.CheckInDate, guest types.AccountID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.getRoom(roomID)
	if err != nil {
		return err
	}

	bookedGuest, booked := room.BookedInfo[date]
	if !booked || bookedGuest != guest {
		return ErrDateNotBooked
	}

	// Validate the guest index before touching anything, so an already
	// inconsistent index fails the whole operation instead of leaving
	// the room side orphaned.
	bookings, err := l.guestBookings(guest)
	if err != nil {
		return err
	}
	if bookings == nil {
		return ErrGuestNotFound
	}
	if mirrored, ok := bookings[date]; !ok || mirrored != roomID {
		return ErrBookingNotFound
	}

	snapshot := room.Status
	delete(room.BookedInfo, date)
	room.Status = types.Available()
	if err := l.putRoom(room); err != nil {
		return err
	}

	delete(bookings, date)
	if err := l.putGuestBookings(guest, bookings); err != nil {
		// Restore the room side so the indexes stay symmetric.
		room.BookedInfo[date] = guest
		room.Status = snapshot
		_ = l.putRoom(room)
		return err
	}

	return nil
}

// IsAvailable reports whether the room's coarse status is Available. It
// does not consult the booking map: a room with future bookings on other
// dates still reports available.
func (l *Ledger) IsAvailable(roomID types.RoomID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.getRoom(roomID)
	if err != nil {
		return false, err
	}
	return room.Status.Kind == types.StatusAvailable, nil
}
