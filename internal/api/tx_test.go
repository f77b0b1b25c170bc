package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"roomledger.mini/rbl/internal/chain"
	"roomledger.mini/rbl/internal/identity"
	"roomledger.mini/rbl/internal/types"
)

func TestHandleTx_SignedRegister(t *testing.T) {
	svc, _ := setupTest(t)

	id, err := identity.LoadOrCreateIdentity(filepath.Join(t.TempDir(), "owner.pem"))
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}

	payload, _ := json.Marshal(types.RegisterRoomPayload{Name: "R1", Price: 10})
	tx := &types.Transaction{Type: types.TxRegisterRoom, Timestamp: time.Now(), Payload: payload}
	stx, err := tx.Sign(id)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	txBytes, _ := json.Marshal(stx)

	req := httptest.NewRequest(http.MethodPost, "/api/tx", bytes.NewReader(txBytes))
	w := httptest.NewRecorder()
	svc.HandleTx(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.Status)
	}
	var result chain.TxResult
	decodeBody(t, resp, &result)
	if !result.IsOK() {
		t.Fatalf("tx rejected: code=%d log=%s", result.Code, result.Log)
	}

	// The signer's hex key is the owning account.
	var roomID types.RoomID
	if err := json.Unmarshal(result.Data, &roomID); err != nil {
		t.Fatalf("decode room id: %v", err)
	}
	if string(roomID) != id.PublicKeyHex()+"/R1" {
		t.Errorf("Unexpected room id: %s", roomID)
	}
}

func TestHandleTx_TamperedSignature(t *testing.T) {
	svc, _ := setupTest(t)

	id, err := identity.LoadOrCreateIdentity(filepath.Join(t.TempDir(), "owner.pem"))
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}

	payload, _ := json.Marshal(types.RegisterRoomPayload{Name: "R1", Price: 10})
	tx := &types.Transaction{Type: types.TxRegisterRoom, Timestamp: time.Now(), Payload: payload}
	stx, err := tx.Sign(id)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	stx.Tx = append(stx.Tx, ' ')
	txBytes, _ := json.Marshal(stx)

	req := httptest.NewRequest(http.MethodPost, "/api/tx", bytes.NewReader(txBytes))
	w := httptest.NewRecorder()
	svc.HandleTx(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status Unauthorized, got %v", w.Result().Status)
	}
}

func TestHandleTx_MalformedBody(t *testing.T) {
	svc, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tx", bytes.NewReader([]byte("not-json")))
	w := httptest.NewRecorder()
	svc.HandleTx(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status Bad Request, got %v", w.Result().Status)
	}
}
