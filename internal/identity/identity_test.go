// Package identity tests validate key generation, loading, and signing
// for the Identity abstraction, and that key files carry the expected
// permissions.
package identity

import (
	"os"
	"testing"
)

func TestIdentityLifecycle(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test_key_*.pem")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	identity1, err := LoadOrCreateIdentity(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	identity2, err := LoadOrCreateIdentity(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load identity: %v", err)
	}

	if identity1.PublicKeyHex() != identity2.PublicKeyHex() {
		t.Errorf("Loaded identity differs from original. Got %s, want %s",
			identity2.PublicKeyHex(), identity1.PublicKeyHex())
	}
}

func TestSignAndVerify(t *testing.T) {
	identity, err := LoadOrCreateIdentity("test_key.pem")
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}
	defer os.Remove("test_key.pem")

	message := []byte("book alice.test/101 for 2030-01-01")

	signature := identity.Sign(message)

	if !identity.Verify(message, signature) {
		t.Error("Failed to verify signature with own public key")
	}

	otherIdentity, err := LoadOrCreateIdentity("other_key.pem")
	if err != nil {
		t.Fatalf("Failed to create other identity: %v", err)
	}
	defer os.Remove("other_key.pem")

	if otherIdentity.Verify(message, signature) {
		t.Error("Incorrectly verified signature with wrong public key")
	}
}

func TestPermissions(t *testing.T) {
	keyPath := "secure_test_key.pem"

	_, err := LoadOrCreateIdentity(keyPath)
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}
	defer os.Remove(keyPath)

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("Failed to stat key file: %v", err)
	}

	if info.Mode().Perm() != 0600 {
		t.Errorf("Key file has wrong permissions. Got %v, want %v",
			info.Mode().Perm(), 0600)
	}
}
