package settle

import (
	"errors"
	"testing"

	"roomledger.mini/rbl/internal/types"
)

type failingBackend struct{}

func (failingBackend) Transfer(types.AccountID, types.Amount) error {
	return errors.New("backend down")
}

func TestDispatcherDrainsToBackend(t *testing.T) {
	backend := NewRecorder(nil)
	d := NewDispatcher(backend, 8, nil)

	if err := d.Transfer("alice", 10); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := d.Transfer("dave", 20); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	d.Close()

	recent := backend.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 payouts delivered, got %d", len(recent))
	}
	// Order preserved: newest first means dave on top.
	if recent[0].To != "dave" || recent[1].To != "alice" {
		t.Fatalf("payout order not preserved: %+v", recent)
	}
	if d.Failures() != 0 {
		t.Fatalf("unexpected failures: %d", d.Failures())
	}
}

func TestDispatcherCountsBackendFailures(t *testing.T) {
	d := NewDispatcher(failingBackend{}, 4, nil)

	if err := d.Transfer("alice", 10); err != nil {
		t.Fatalf("Transfer should enqueue despite failing backend: %v", err)
	}
	d.Close()

	if d.Failures() != 1 {
		t.Fatalf("expected 1 failure, got %d", d.Failures())
	}
}
