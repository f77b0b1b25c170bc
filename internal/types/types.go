// Package types defines the core domain models for roomLedger mini (rbl).
// It contains the Room data model, the usage-status variant, the view rows
// served to owners and guests, and the signed transaction envelope used to
// carry booking operations to the ledger.
package types

// Version is the current version of RBL
const Version = "0.1.0"

// BuildTime is set at build time via -ldflags
var BuildTime = "dev"

// AccountID identifies an owner or guest. For signed transactions it is
// the hex-encoded ed25519 public key of the signer; the chain layer only
// ever derives it from a verified signature. Account ids never contain
// '/', which is reserved as the RoomID separator.
type AccountID string

// RoomID uniquely identifies a room across the ledger. It is derived
// deterministically from the owner account and the room name as
// "owner/name"; room names may not contain '/'.
type RoomID string

// CheckInDate is a single discrete booking key, "YYYY-MM-DD". Bookings
// cover one date each; there is no interval model.
type CheckInDate string

// Amount is a price or deposit in minor units.
type Amount uint64

// StatusKind enumerates the coarse occupancy states of a room.
type StatusKind string

const (
	StatusAvailable StatusKind = "available"
	StatusStay      StatusKind = "stay"
)

// UsageStatus is the coarse occupancy flag of a room: Available, or
// Stay with the date of the current stay. It is display state, distinct
// from the set of future bookings held in Room.BookedInfo.
type UsageStatus struct {
	Kind        StatusKind  `json:"kind"`
	CheckInDate CheckInDate `json:"check_in_date,omitempty"`
}

// Available returns the Available status value.
func Available() UsageStatus {
	return UsageStatus{Kind: StatusAvailable}
}

// Stay returns a Stay status for the given date.
func Stay(date CheckInDate) UsageStatus {
	return UsageStatus{Kind: StatusStay, CheckInDate: date}
}

// Room is the ledger's primary record for a bookable unit. BookedInfo maps
// each booked check-in date to the guest holding it; a date key exists here
// iff the guest index holds the mirrored entry pointing back at this room.
type Room struct {
	ID           RoomID                    `json:"id"`
	OwnerID      AccountID                 `json:"owner_id"`
	Name         string                    `json:"name"`
	Image        string                    `json:"image"`
	Beds         uint8                     `json:"beds"`
	Description  string                    `json:"description"`
	Location     string                    `json:"location"`
	Price        Amount                    `json:"price"`
	CheckInTime  string                    `json:"check_in_time,omitempty"`
	CheckOutTime string                    `json:"check_out_time,omitempty"`
	Status       UsageStatus               `json:"status"`
	BookedInfo   map[CheckInDate]AccountID `json:"booked_info"`
}

// RegisteredRoom is the owner-facing view of one registered room.
type RegisteredRoom struct {
	Name        string      `json:"name"`
	Image       string      `json:"image"`
	Beds        uint8       `json:"beds"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Price       Amount      `json:"price"`
	Status      UsageStatus `json:"status"`
}

// BookedRoom is one (room, date) booking row shown to an owner. Status is
// derived per row: Stay only for the row matching the room's current stay
// date, Available for every other booked row.
type BookedRoom struct {
	RoomID      RoomID      `json:"room_id"`
	Name        string      `json:"name"`
	CheckInDate CheckInDate `json:"check_in_date"`
	GuestID     AccountID   `json:"guest_id"`
	Status      UsageStatus `json:"status"`
}

// AvailableRoom is the guest-facing view of a room open on a given date.
type AvailableRoom struct {
	RoomID      RoomID    `json:"room_id"`
	OwnerID     AccountID `json:"owner_id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Beds        uint8     `json:"beds"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Price       Amount    `json:"price"`
}

// GuestBookedRoom is one booking row shown to the guest who holds it.
type GuestBookedRoom struct {
	OwnerID     AccountID   `json:"owner_id"`
	RoomName    string      `json:"room_name"`
	CheckInDate CheckInDate `json:"check_in_date"`
}

// BookingReceipt is returned to the guest when a booking commits. The
// booking itself is authoritative once the receipt exists; PayoutWarning
// is set when the downstream fund transfer reported a failure, which does
// not reverse the booking.
type BookingReceipt struct {
	ID            string      `json:"id"`
	RoomID        RoomID      `json:"room_id"`
	CheckInDate   CheckInDate `json:"check_in_date"`
	GuestID       AccountID   `json:"guest_id"`
	OwnerID       AccountID   `json:"owner_id"`
	Amount        Amount      `json:"amount"`
	PayoutWarning string      `json:"payout_warning,omitempty"`
}
