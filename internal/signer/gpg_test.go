package signer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// generateKey writes a fresh armored Ed25519 private key to dir and
// returns its path together with the generated entity.
func generateKey(t *testing.T, dir string) (string, *openpgp.Entity) {
	t.Helper()

	entity, err := openpgp.NewEntity("Channel Signing", "", "channels@example.com", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to create armor writer: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close armor writer: %v", err)
	}

	keyPath := filepath.Join(dir, "signing.asc")
	if err := os.WriteFile(keyPath, buf.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	return keyPath, entity
}

func TestSignDetached(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "signer-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	keyPath, entity := generateKey(t, tmpDir)

	s, err := NewGPGSigner(keyPath, "")
	if err != nil {
		t.Fatalf("NewGPGSigner failed: %v", err)
	}

	message := []byte(`{"packages": {}, "repodata_version": 1}`)
	sig, err := s.SignDetached(message)
	if err != nil {
		t.Fatalf("SignDetached failed: %v", err)
	}
	if !bytes.Contains(sig, []byte("BEGIN PGP SIGNATURE")) {
		t.Errorf("signature is not armored:\n%s", sig)
	}

	// The signature must verify against the generating key
	_, err = openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, bytes.NewReader(message), bytes.NewReader(sig), nil)
	if err != nil {
		t.Errorf("signature does not verify: %v", err)
	}

	// And fail against tampered data
	_, err = openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, bytes.NewReader([]byte("tampered")), bytes.NewReader(sig), nil)
	if err == nil {
		t.Error("tampered data verified")
	}
}

func TestGetPublicKey(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "signer-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	keyPath, _ := generateKey(t, tmpDir)

	s, err := NewGPGSigner(keyPath, "")
	if err != nil {
		t.Fatalf("NewGPGSigner failed: %v", err)
	}

	pub, err := s.GetPublicKey()
	if err != nil {
		t.Fatalf("GetPublicKey failed: %v", err)
	}
	if !bytes.Contains(pub, []byte("BEGIN PGP PUBLIC KEY BLOCK")) {
		t.Errorf("public key is not armored:\n%s", pub)
	}
	if bytes.Contains(pub, []byte("PRIVATE KEY")) {
		t.Error("public key export contains private key material")
	}
}

func TestNewGPGSignerErrors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "signer-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if _, err := NewGPGSigner("", ""); err == nil {
		t.Error("expected error for empty key path")
	}
	if _, err := NewGPGSigner(filepath.Join(tmpDir, "missing.asc"), ""); err == nil {
		t.Error("expected error for missing key file")
	}

	garbage := filepath.Join(tmpDir, "garbage.asc")
	if err := os.WriteFile(garbage, []byte("not a key"), 0600); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}
	if _, err := NewGPGSigner(garbage, ""); err == nil {
		t.Error("expected error for invalid key file")
	}
}
