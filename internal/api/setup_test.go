package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"roomledger.mini/rbl/internal/chain"
	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/ledger"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/settle"
	"roomledger.mini/rbl/internal/types"
)

// setupTest creates a service over a temporary SQLite store.
func setupTest(t *testing.T) (*Service, *ledger.Ledger) {
	t.Helper()

	store, err := kv.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := logger.New(100)
	payouts := settle.NewRecorder(nil)
	led := ledger.New(store, payouts, log)
	app := chain.New(led, log)

	return NewService(led, app, store, payouts, log), led
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w.Result()
}

func getPath(t *testing.T, handler http.HandlerFunc, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler(w, req)
	return w.Result()
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func addRoom(t *testing.T, svc *Service, owner types.AccountID, name string, price types.Amount) types.RoomID {
	t.Helper()
	resp := postJSON(t, svc.HandleAddRoom, "/api/rooms/add", map[string]interface{}{
		"owner": owner,
		"name":  name,
		"beds":  2,
		"price": price,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add room: expected 200, got %v", resp.Status)
	}
	var out map[string]types.RoomID
	decodeBody(t, resp, &out)
	return out["room_id"]
}
