package keystore

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/monolythium/mono-seedkit/internal/hdkeys"
)

func testAccount(t *testing.T) hdkeys.Account {
	t.Helper()
	acct, err := hdkeys.DeriveAccount(make([]byte, 16), 0)
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	return acct
}

// TestEncryptDecryptRoundTrip verifies the sealed key decrypts back to
// the original bytes.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	acct := testAccount(t)

	ks, err := Encrypt(acct, "correct horse battery staple", LightParams)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if ks.Version != 3 {
		t.Errorf("version = %d, want 3", ks.Version)
	}
	if ks.Crypto.KDF != "scrypt" || ks.Crypto.Cipher != "aes-128-ctr" {
		t.Errorf("unexpected crypto params: kdf=%s cipher=%s", ks.Crypto.KDF, ks.Crypto.Cipher)
	}

	address, err := acct.Address()
	if err != nil {
		t.Fatalf("Address failed: %v", err)
	}
	if want := strings.ToLower(strings.TrimPrefix(address, "0x")); ks.Address != want {
		t.Errorf("address = %s, want %s", ks.Address, want)
	}

	priv, err := Decrypt(ks, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(priv, acct.PrivateKeyBytes()) {
		t.Error("decrypted key differs from the original")
	}
}

// TestDecryptWrongPassword verifies the MAC check rejects a bad password.
func TestDecryptWrongPassword(t *testing.T) {
	ks, err := Encrypt(testAccount(t), "password", LightParams)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(ks, "not the password"); err == nil {
		t.Error("Decrypt accepted a wrong password")
	}
}

// TestSaveLoadRoundTrip verifies file persistence.
func TestSaveLoadRoundTrip(t *testing.T) {
	acct := testAccount(t)
	ks, err := Encrypt(acct, "password", LightParams)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "keys", "wallet.json")
	if err := Save(ks, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != ks.ID || loaded.Address != ks.Address || loaded.Crypto.MAC != ks.Crypto.MAC {
		t.Error("loaded keystore differs from the saved one")
	}

	priv, err := Decrypt(loaded, "password")
	if err != nil {
		t.Fatalf("Decrypt of loaded keystore failed: %v", err)
	}
	if !bytes.Equal(priv, acct.PrivateKeyBytes()) {
		t.Error("decrypted key from disk differs from the original")
	}
}

// TestLoadRejectsGarbage verifies format validation.
func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.json")
	if err := Save(&File{Version: 2}, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a non-v3 document")
	}
}

// TestFilename verifies the conventional naming.
func TestFilename(t *testing.T) {
	name := Filename("0xABCDEF1234567890abcdef1234567890ABCDEF12")
	if !strings.HasPrefix(name, "UTC--") {
		t.Errorf("filename %q missing UTC-- prefix", name)
	}
	if !strings.HasSuffix(name, "--abcdef1234567890abcdef1234567890abcdef12.json") {
		t.Errorf("filename %q missing lowercased address suffix", name)
	}
}
