package ledger

import "errors"

// Terminal error kinds surfaced to callers. None are retried internally;
// a failed operation leaves all three indexes exactly as they were.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrDuplicateRoom     = errors.New("room already registered")
	ErrInvalidRoomName   = errors.New("invalid room name")
	ErrIncorrectDeposit  = errors.New("attached deposit does not match room price")
	ErrDateAlreadyBooked = errors.New("date already booked for this room")
	ErrDuplicateBooking  = errors.New("guest already holds a booking for this date")
	ErrDateNotBooked     = errors.New("date not booked for this room")
	ErrBookingNotFound   = errors.New("booking not found for guest")
	ErrGuestNotFound     = errors.New("guest has no bookings")
)
