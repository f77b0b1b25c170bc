package types

import (
	"crypto/ed25519"
	"encoding/json"
	"time"

	"roomledger.mini/rbl/internal/identity"
)

// TransactionType identifies the ledger operation a transaction carries.
type TransactionType string

const (
	TxRegisterRoom TransactionType = "register_room"
	TxBookRoom     TransactionType = "book_room"
	TxCheckIn      TransactionType = "check_in"
	TxCheckOut     TransactionType = "check_out"
)

// Transaction is the unsigned inner message. Payload holds the
// type-specific JSON payload.
type Transaction struct {
	Type      TransactionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SignedTransaction wraps the serialized inner transaction with the
// signer's signature and public key. The verified public key is the
// caller identity for the operation.
type SignedTransaction struct {
	Tx        []byte `json:"tx"`
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"public_key"`
}

// Sign serializes the transaction and signs it with the given identity.
func (t *Transaction) Sign(id *identity.Identity) (*SignedTransaction, error) {
	txBytes, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Tx:        txBytes,
		Signature: id.Sign(txBytes),
		PublicKey: id.PublicKey(),
	}, nil
}

// Verify checks the signature against the embedded public key.
func (s *SignedTransaction) Verify() bool {
	if len(s.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(s.PublicKey), s.Tx, s.Signature)
}

// GetTransaction decodes the inner transaction.
func (s *SignedTransaction) GetTransaction() (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(s.Tx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// RegisterRoomPayload is the payload for TxRegisterRoom. The owner is the
// transaction signer.
type RegisterRoomPayload struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	Beds         uint8  `json:"beds"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Price        Amount `json:"price"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// BookRoomPayload is the payload for TxBookRoom. Deposit is the amount
// attached by the guest and must equal the room price exactly.
type BookRoomPayload struct {
	RoomID      RoomID      `json:"room_id"`
	CheckInDate CheckInDate `json:"check_in_date"`
	Deposit     Amount      `json:"deposit"`
}

// CheckInPayload is the payload for TxCheckIn.
type CheckInPayload struct {
	RoomID      RoomID      `json:"room_id"`
	CheckInDate CheckInDate `json:"check_in_date"`
}

// CheckOutPayload is the payload for TxCheckOut.
type CheckOutPayload struct {
	RoomID      RoomID      `json:"room_id"`
	CheckInDate CheckInDate `json:"check_in_date"`
	GuestID     AccountID   `json:"guest_id"`
}
