// Package chain contains the deterministic application that turns signed
// transactions into booking-ledger state transitions. It implements
// transaction validation (CheckTx) and execution (DeliverTx): signatures
// are verified here, the verified signer public key becomes the caller
// account for the operation, and the result codes let a replicating
// transport agree on acceptance without inspecting ledger internals.
package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"roomledger.mini/rbl/internal/ledger"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

const (
	CodeTypeOK            uint32 = 0
	CodeTypeEncodingError uint32 = 1
	CodeTypeAuthError     uint32 = 2
	CodeTypeInvalidTx     uint32 = 3
)

// TxResult is the outcome of checking or delivering one transaction.
// Data carries operation output (a room id or booking receipt) as JSON.
type TxResult struct {
	Code uint32          `json:"code"`
	Log  string          `json:"log,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (r TxResult) IsOK() bool { return r.Code == CodeTypeOK }

// App routes verified transactions to the booking ledger.
type App struct {
	ledger *ledger.Ledger
	log    *logger.Logger
}

// New creates an App over the given ledger. log may be nil.
func New(l *ledger.Ledger, log *logger.Logger) *App {
	return &App{ledger: l, log: log}
}

func (a *App) logInfo(format string, args ...interface{}) {
	if a.log != nil {
		a.log.Info(fmt.Sprintf(format, args...))
	}
}

// CheckTx validates a transaction without executing it: the envelope must
// decode, the signature must verify, and the inner transaction must carry
// a known type. Ledger state is not consulted.
func (a *App) CheckTx(txBytes []byte) TxResult {
	var stx types.SignedTransaction
	if err := json.Unmarshal(txBytes, &stx); err != nil {
		return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode signed tx"}
	}

	if !stx.Verify() {
		return TxResult{Code: CodeTypeAuthError, Log: "invalid signature"}
	}

	tx, err := stx.GetTransaction()
	if err != nil {
		return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode inner tx"}
	}

	switch tx.Type {
	case types.TxRegisterRoom, types.TxBookRoom, types.TxCheckIn, types.TxCheckOut:
		return TxResult{Code: CodeTypeOK}
	default:
		return TxResult{Code: CodeTypeInvalidTx, Log: "unknown transaction type"}
	}
}

// DeliverTx verifies and executes a transaction against the ledger. The
// signer's public key, hex encoded, is the account performing the
// operation: owners register and release rooms, guests book them.
func (a *App) DeliverTx(txBytes []byte) TxResult {
	var stx types.SignedTransaction
	if err := json.Unmarshal(txBytes, &stx); err != nil {
		return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode signed tx"}
	}

	if !stx.Verify() {
		return TxResult{Code: CodeTypeAuthError, Log: "invalid signature"}
	}

	tx, err := stx.GetTransaction()
	if err != nil {
		return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode inner tx"}
	}

	signer := types.AccountID(hex.EncodeToString(stx.PublicKey))

	switch tx.Type {
	case types.TxRegisterRoom:
		var payload types.RegisterRoomPayload
		if err := json.Unmarshal(tx.Payload, &payload); err != nil {
			return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode RegisterRoom payload"}
		}
		roomID, err := a.ledger.RegisterRoom(signer, payload)
		if err != nil {
			return TxResult{Code: CodeTypeInvalidTx, Log: err.Error()}
		}
		a.logInfo("registered room %s", roomID)
		data, _ := json.Marshal(roomID)
		return TxResult{Code: CodeTypeOK, Data: data}

	case types.TxBookRoom:
		var payload types.BookRoomPayload
		if err := json.Unmarshal(tx.Payload, &payload); err != nil {
			return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode BookRoom payload"}
		}
		receipt, err := a.ledger.BookRoom(signer, payload.RoomID, payload.CheckInDate, payload.Deposit)
		if err != nil {
			return TxResult{Code: CodeTypeInvalidTx, Log: err.Error()}
		}
		a.logInfo("booked room %s for %s", payload.RoomID, payload.CheckInDate)
		data, _ := json.Marshal(receipt)
		return TxResult{Code: CodeTypeOK, Log: receipt.PayoutWarning, Data: data}

	case types.TxCheckIn:
		var payload types.CheckInPayload
		if err := json.Unmarshal(tx.Payload, &payload); err != nil {
			return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode CheckIn payload"}
		}
		if !signerOwnsRoom(signer, payload.RoomID) {
			return TxResult{Code: CodeTypeAuthError, Log: "signer does not own room"}
		}
		if err := a.ledger.CheckIn(payload.RoomID, payload.CheckInDate); err != nil {
			return TxResult{Code: CodeTypeInvalidTx, Log: err.Error()}
		}
		a.logInfo("check-in at room %s for %s", payload.RoomID, payload.CheckInDate)
		return TxResult{Code: CodeTypeOK}

	case types.TxCheckOut:
		var payload types.CheckOutPayload
		if err := json.Unmarshal(tx.Payload, &payload); err != nil {
			return TxResult{Code: CodeTypeEncodingError, Log: "failed to decode CheckOut payload"}
		}
		if !signerOwnsRoom(signer, payload.RoomID) {
			return TxResult{Code: CodeTypeAuthError, Log: "signer does not own room"}
		}
		if err := a.ledger.CheckOut(payload.RoomID, payload.CheckInDate, payload.GuestID); err != nil {
			return TxResult{Code: CodeTypeInvalidTx, Log: err.Error()}
		}
		a.logInfo("check-out at room %s for %s", payload.RoomID, payload.CheckInDate)
		return TxResult{Code: CodeTypeOK}

	default:
		return TxResult{Code: CodeTypeInvalidTx, Log: "unknown transaction type"}
	}
}

// signerOwnsRoom checks that the room id was derived from the signer's
// account. Room ids are owner-prefixed, so ownership is decidable without
// loading the room.
func signerOwnsRoom(signer types.AccountID, roomID types.RoomID) bool {
	return strings.HasPrefix(string(roomID), string(signer)+"/")
}
