// Package types tests exercise the transaction envelope and payload
// serialization used across the codebase. They ensure transactions
// marshal/unmarshal correctly and that signatures verify end to end.
package types

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"roomledger.mini/rbl/internal/identity"
)

func TestTransactionSigning(t *testing.T) {
	id, err := identity.LoadOrCreateIdentity("test_key.pem")
	if err != nil {
		t.Fatalf("Failed to create test identity: %v", err)
	}
	defer os.Remove("test_key.pem")

	tx := &Transaction{
		Type:      TxCheckIn,
		Timestamp: time.Now(),
		Payload: json.RawMessage(`{
			"room_id": "alice.test/101",
			"check_in_date": "2030-01-01"
		}`),
	}

	signedTx, err := tx.Sign(id)
	if err != nil {
		t.Fatalf("Failed to sign transaction: %v", err)
	}

	if !signedTx.Verify() {
		t.Error("Failed to verify transaction signature")
	}

	extractedTx, err := signedTx.GetTransaction()
	if err != nil {
		t.Fatalf("Failed to extract transaction: %v", err)
	}

	if extractedTx.Type != tx.Type {
		t.Errorf("Transaction type mismatch. Got %s, want %s",
			extractedTx.Type, tx.Type)
	}
}

func TestTamperedTransactionFailsVerify(t *testing.T) {
	id, err := identity.LoadOrCreateIdentity("test_key_tamper.pem")
	if err != nil {
		t.Fatalf("Failed to create test identity: %v", err)
	}
	defer os.Remove("test_key_tamper.pem")

	tx := &Transaction{
		Type:      TxCheckOut,
		Timestamp: time.Now(),
		Payload:   json.RawMessage(`{"room_id":"alice.test/101"}`),
	}

	signedTx, err := tx.Sign(id)
	if err != nil {
		t.Fatalf("Failed to sign transaction: %v", err)
	}

	signedTx.Tx = append(signedTx.Tx, ' ')
	if signedTx.Verify() {
		t.Error("Verify accepted a tampered transaction")
	}
}

func TestTransactionPayloads(t *testing.T) {
	testCases := []struct {
		name    string
		txType  TransactionType
		payload interface{}
	}{
		{
			name:   "RegisterRoom",
			txType: TxRegisterRoom,
			payload: RegisterRoomPayload{
				Name:        "101",
				Image:       "test.img",
				Beds:        1,
				Description: "This is 101 room",
				Location:    "Tokyo",
				Price:       10,
			},
		},
		{
			name:   "BookRoom",
			txType: TxBookRoom,
			payload: BookRoomPayload{
				RoomID:      "alice.test/101",
				CheckInDate: "2030-01-01",
				Deposit:     10,
			},
		},
		{
			name:   "CheckOut",
			txType: TxCheckOut,
			payload: CheckOutPayload{
				RoomID:      "alice.test/101",
				CheckInDate: "2030-01-01",
				GuestID:     "deadbeef",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payloadBytes, err := json.Marshal(tc.payload)
			if err != nil {
				t.Fatalf("Failed to marshal payload: %v", err)
			}

			tx := &Transaction{
				Type:      tc.txType,
				Timestamp: time.Now(),
				Payload:   payloadBytes,
			}

			txBytes, err := json.Marshal(tx)
			if err != nil {
				t.Fatalf("Failed to marshal transaction: %v", err)
			}

			var unmarshalled Transaction
			if err := json.Unmarshal(txBytes, &unmarshalled); err != nil {
				t.Fatalf("Failed to unmarshal transaction: %v", err)
			}

			if unmarshalled.Type != tc.txType {
				t.Errorf("Transaction type mismatch. Got %s, want %s",
					unmarshalled.Type, tc.txType)
			}
		})
	}
}

func TestUsageStatusRoundTrip(t *testing.T) {
	stay := Stay("2030-01-01")
	data, err := json.Marshal(stay)
	if err != nil {
		t.Fatalf("marshal status: %v", err)
	}

	var decoded UsageStatus
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if decoded.Kind != StatusStay || decoded.CheckInDate != "2030-01-01" {
		t.Errorf("unexpected decoded status: %+v", decoded)
	}

	avail, _ := json.Marshal(Available())
	if string(avail) != `{"kind":"available"}` {
		t.Errorf("available status should omit date, got %s", avail)
	}
}
