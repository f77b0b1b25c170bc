package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"roomledger.mini/rbl/internal/types"
)

func TestHandleBackup(t *testing.T) {
	svc, _ := setupTest(t)
	addRoom(t, svc, "alice", "R1", 10)

	resp := postJSON(t, svc.HandleBackup, "/api/backup", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.Status)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if out["path"] == "" {
		t.Errorf("Expected backup path in response, got %+v", out)
	}
}

func TestSnapshotExportImportRoundTrip(t *testing.T) {
	svc, _ := setupTest(t)
	addRoom(t, svc, "alice", "R1", 10)

	// Export a snapshot with one registered room.
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot/export", nil)
	w := httptest.NewRecorder()
	svc.HandleSnapshotExport(w, req)
	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK on export, got %v", resp.Status)
	}
	snapshot, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil || len(snapshot) == 0 {
		t.Fatalf("Expected snapshot bytes, err=%v len=%d", err, len(snapshot))
	}

	// Mutate state past the snapshot.
	addRoom(t, svc, "alice", "R2", 20)

	// Import rolls the ledger back to the snapshot contents.
	req = httptest.NewRequest(http.MethodPost, "/api/snapshot/import", bytes.NewReader(snapshot))
	w = httptest.NewRecorder()
	svc.HandleSnapshotImport(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK on import, got %v", w.Result().Status)
	}

	listResp := getPath(t, svc.HandleOwnedRooms, "/api/rooms/owned?owner=alice")
	var rooms []types.RegisteredRoom
	decodeBody(t, listResp, &rooms)
	if len(rooms) != 1 || rooms[0].Name != "R1" {
		t.Errorf("Expected only R1 after import, got %+v", rooms)
	}
}

func TestHandleSnapshotImport_EmptyBody(t *testing.T) {
	svc, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/snapshot/import", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	svc.HandleSnapshotImport(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status Bad Request, got %v", w.Result().Status)
	}
}

func TestHandleLogs(t *testing.T) {
	svc, _ := setupTest(t)
	addRoom(t, svc, "alice", "R1", 10)

	resp := getPath(t, svc.HandleLogs, "/api/logs?n=10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.Status)
	}
	var msgs []struct {
		Text  string `json:"text"`
		Level string `json:"level"`
	}
	decodeBody(t, resp, &msgs)
	if len(msgs) == 0 {
		t.Errorf("Expected at least one log message")
	}
}

func TestHandlePayouts(t *testing.T) {
	svc, led := setupTest(t)

	roomID := addRoom(t, svc, "alice", "R1", 10)
	if _, err := led.BookRoom("bob", roomID, "2030-01-01", 10); err != nil {
		t.Fatalf("BookRoom: %v", err)
	}

	resp := getPath(t, svc.HandlePayouts, "/api/payouts")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.Status)
	}
	var payouts []struct {
		To     types.AccountID `json:"to"`
		Amount types.Amount    `json:"amount"`
	}
	decodeBody(t, resp, &payouts)
	if len(payouts) != 1 || payouts[0].To != "alice" || payouts[0].Amount != 10 {
		t.Errorf("Unexpected payouts: %+v", payouts)
	}
}
