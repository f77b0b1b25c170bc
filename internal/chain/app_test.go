package chain

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"roomledger.mini/rbl/internal/identity"
	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/ledger"
	"roomledger.mini/rbl/internal/types"
)

type nopTransferer struct{}

func (nopTransferer) Transfer(types.AccountID, types.Amount) error { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	return New(ledger.New(kv.NewMemoryStore(), nopTransferer{}, nil), nil)
}

func newTestIdentity(t *testing.T, name string) *identity.Identity {
	t.Helper()
	id, err := identity.LoadOrCreateIdentity(filepath.Join(t.TempDir(), name+".pem"))
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity %s: %v", name, err)
	}
	return id
}

func signedTxBytes(t *testing.T, id *identity.Identity, txType types.TransactionType, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	tx := &types.Transaction{Type: txType, Timestamp: time.Now(), Payload: raw}
	stx, err := tx.Sign(id)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	txBytes, err := json.Marshal(stx)
	if err != nil {
		t.Fatalf("marshal signed tx: %v", err)
	}
	return txBytes
}

func registerRoom(t *testing.T, app *App, owner *identity.Identity, name string, price types.Amount) types.RoomID {
	t.Helper()
	txBytes := signedTxBytes(t, owner, types.TxRegisterRoom, types.RegisterRoomPayload{
		Name:  name,
		Beds:  2,
		Price: price,
	})
	res := app.DeliverTx(txBytes)
	if !res.IsOK() {
		t.Fatalf("DeliverTx register failed: code=%d log=%s", res.Code, res.Log)
	}
	var roomID types.RoomID
	if err := json.Unmarshal(res.Data, &roomID); err != nil {
		t.Fatalf("decode room id: %v", err)
	}
	return roomID
}

func TestRegisterRoomCheckAndDeliver(t *testing.T) {
	app := newTestApp(t)
	owner := newTestIdentity(t, "owner")

	txBytes := signedTxBytes(t, owner, types.TxRegisterRoom, types.RegisterRoomPayload{
		Name: "101", Beds: 1, Price: 10,
	})

	if res := app.CheckTx(txBytes); !res.IsOK() {
		t.Fatalf("CheckTx failed: code=%d log=%s", res.Code, res.Log)
	}
	res := app.DeliverTx(txBytes)
	if !res.IsOK() {
		t.Fatalf("DeliverTx failed: code=%d log=%s", res.Code, res.Log)
	}

	var roomID types.RoomID
	if err := json.Unmarshal(res.Data, &roomID); err != nil {
		t.Fatalf("decode room id: %v", err)
	}
	expected := ledger.MakeRoomID(types.AccountID(owner.PublicKeyHex()), "101")
	if roomID != expected {
		t.Fatalf("expected room id %s, got %s", expected, roomID)
	}
}

func TestCheckTxRejectsInvalidSignature(t *testing.T) {
	app := newTestApp(t)
	a := newTestIdentity(t, "a")
	b := newTestIdentity(t, "b")

	// Signed by B but claiming A's public key.
	tx := &types.Transaction{Type: types.TxRegisterRoom, Timestamp: time.Now(), Payload: []byte(`{}`)}
	stx, err := tx.Sign(b)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	stx.PublicKey = a.PublicKey()
	txBytes, _ := json.Marshal(stx)

	if res := app.CheckTx(txBytes); res.Code != CodeTypeAuthError {
		t.Fatalf("expected auth error, got code=%d log=%s", res.Code, res.Log)
	}
	if res := app.DeliverTx(txBytes); res.Code != CodeTypeAuthError {
		t.Fatalf("DeliverTx expected auth error, got code=%d log=%s", res.Code, res.Log)
	}
}

func TestCheckTxRejectsMalformedEnvelope(t *testing.T) {
	app := newTestApp(t)

	if res := app.CheckTx([]byte("not-json")); res.Code != CodeTypeEncodingError {
		t.Fatalf("expected encoding error, got code=%d", res.Code)
	}
}

func TestBookRoomDeliverReturnsReceipt(t *testing.T) {
	app := newTestApp(t)
	owner := newTestIdentity(t, "owner")
	guest := newTestIdentity(t, "guest")

	roomID := registerRoom(t, app, owner, "R1", 10)

	txBytes := signedTxBytes(t, guest, types.TxBookRoom, types.BookRoomPayload{
		RoomID:      roomID,
		CheckInDate: "2030-01-01",
		Deposit:     10,
	})
	res := app.DeliverTx(txBytes)
	if !res.IsOK() {
		t.Fatalf("DeliverTx book failed: code=%d log=%s", res.Code, res.Log)
	}

	var receipt types.BookingReceipt
	if err := json.Unmarshal(res.Data, &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.GuestID != types.AccountID(guest.PublicKeyHex()) {
		t.Fatalf("receipt guest is not the tx signer: %+v", receipt)
	}
	if receipt.OwnerID != types.AccountID(owner.PublicKeyHex()) {
		t.Fatalf("receipt owner mismatch: %+v", receipt)
	}
}

func TestBookRoomWrongDepositRejected(t *testing.T) {
	app := newTestApp(t)
	owner := newTestIdentity(t, "owner")
	guest := newTestIdentity(t, "guest")

	roomID := registerRoom(t, app, owner, "R1", 10)

	txBytes := signedTxBytes(t, guest, types.TxBookRoom, types.BookRoomPayload{
		RoomID:      roomID,
		CheckInDate: "2030-01-01",
		Deposit:     7,
	})
	if res := app.DeliverTx(txBytes); res.Code != CodeTypeInvalidTx {
		t.Fatalf("expected invalid tx, got code=%d log=%s", res.Code, res.Log)
	}
}

func TestCheckInRequiresRoomOwner(t *testing.T) {
	app := newTestApp(t)
	owner := newTestIdentity(t, "owner")
	guest := newTestIdentity(t, "guest")

	roomID := registerRoom(t, app, owner, "R1", 10)

	bookBytes := signedTxBytes(t, guest, types.TxBookRoom, types.BookRoomPayload{
		RoomID: roomID, CheckInDate: "2030-01-01", Deposit: 10,
	})
	if res := app.DeliverTx(bookBytes); !res.IsOK() {
		t.Fatalf("book failed: code=%d log=%s", res.Code, res.Log)
	}

	// The guest cannot flip the room's status.
	checkIn := types.CheckInPayload{RoomID: roomID, CheckInDate: "2030-01-01"}
	if res := app.DeliverTx(signedTxBytes(t, guest, types.TxCheckIn, checkIn)); res.Code != CodeTypeAuthError {
		t.Fatalf("expected auth error for non-owner check-in, got code=%d log=%s", res.Code, res.Log)
	}

	// The owner can.
	if res := app.DeliverTx(signedTxBytes(t, owner, types.TxCheckIn, checkIn)); !res.IsOK() {
		t.Fatalf("owner check-in failed: code=%d log=%s", res.Code, res.Log)
	}

	// And can release the room afterwards.
	checkOut := types.CheckOutPayload{
		RoomID:      roomID,
		CheckInDate: "2030-01-01",
		GuestID:     types.AccountID(guest.PublicKeyHex()),
	}
	if res := app.DeliverTx(signedTxBytes(t, owner, types.TxCheckOut, checkOut)); !res.IsOK() {
		t.Fatalf("owner check-out failed: code=%d log=%s", res.Code, res.Log)
	}
}

func TestDeliverTxUnknownType(t *testing.T) {
	app := newTestApp(t)
	id := newTestIdentity(t, "id")

	txBytes := signedTxBytes(t, id, types.TransactionType("demolish_room"), struct{}{})
	if res := app.CheckTx(txBytes); res.Code != CodeTypeInvalidTx {
		t.Fatalf("CheckTx expected invalid tx, got code=%d", res.Code)
	}
	if res := app.DeliverTx(txBytes); res.Code != CodeTypeInvalidTx {
		t.Fatalf("DeliverTx expected invalid tx, got code=%d", res.Code)
	}
}
