// Package identity manages account keypairs for the booking ledger. Each
// rbl node holds a persistent ed25519 private key; the hex-encoded public
// key is the account identity under which the node registers rooms and
// books stays. The package provides key file load/create with secure
// permissions and an Identity abstraction for signing transactions.
package identity

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"os"
)

// Identity is an account's cryptographic identity.
type Identity struct {
	privateKey   ed25519.PrivateKey
	publicKey    ed25519.PublicKey
	publicKeyHex string
}

// NewIdentity creates an Identity from a private key.
func NewIdentity(privKey ed25519.PrivateKey) *Identity {
	pubKey := privKey.Public().(ed25519.PublicKey)
	return &Identity{
		privateKey:   privKey,
		publicKey:    pubKey,
		publicKeyHex: hex.EncodeToString(pubKey),
	}
}

// LoadOrCreateIdentity loads the identity stored at keyPath, or generates
// and persists a new keypair when the file is missing or empty. Key files
// are PEM-encoded PKCS8 with 0600 permissions.
func LoadOrCreateIdentity(keyPath string) (*Identity, error) {
	info, err := os.Stat(keyPath)
	if os.IsNotExist(err) {
		privKey, err := generateAndSaveKeyPair(keyPath)
		if err != nil {
			return nil, err
		}
		return NewIdentity(privKey), nil
	}
	if err != nil {
		return nil, err
	}

	// A zero-length key file is treated as missing.
	if info.Size() == 0 {
		privKey, err := generateAndSaveKeyPair(keyPath)
		if err != nil {
			return nil, err
		}
		return NewIdentity(privKey), nil
	}

	privKey, err := loadKeyPair(keyPath)
	if err != nil {
		return nil, err
	}
	return NewIdentity(privKey), nil
}

// Sign signs the provided message with the identity's private key.
func (i *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(i.privateKey, message)
}

// Verify verifies a signature against a message using the identity's
// public key.
func (i *Identity) Verify(message, signature []byte) bool {
	return ed25519.Verify(i.publicKey, message, signature)
}

// PublicKey returns the raw public key.
func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.publicKey
}

// PrivateKey returns the raw private key.
func (i *Identity) PrivateKey() ed25519.PrivateKey {
	return i.privateKey
}

// PublicKeyHex returns the hex-encoded public key. This is the canonical
// account identifier recorded in the ledger's indexes.
func (i *Identity) PublicKeyHex() string {
	return i.publicKeyHex
}

func generateAndSaveKeyPair(keyPath string) (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}

	x509Encoded, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509Encoded,
	}

	file, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := pem.Encode(file, pemBlock); err != nil {
		return nil, err
	}

	return priv, nil
}

func loadKeyPair(keyPath string) (ed25519.PrivateKey, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	pemBlock, _ := pem.Decode(keyData)
	if pemBlock == nil {
		return nil, errors.New("failed to decode PEM block from key file")
	}

	genericKey, err := x509.ParsePKCS8PrivateKey(pemBlock.Bytes)
	if err != nil {
		return nil, err
	}

	privKey, ok := genericKey.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("key is not an ed25519 private key")
	}

	return privKey, nil
}
