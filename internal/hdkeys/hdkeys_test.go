package hdkeys

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// TestMnemonicRoundTrip verifies entropy -> mnemonic -> entropy for every
// supported entropy size.
func TestMnemonicRoundTrip(t *testing.T) {
	for _, size := range []int{16, 20, 24, 28, 32} {
		entropy := make([]byte, size)
		for i := range entropy {
			entropy[i] = byte(i*7 + 3)
		}

		words, err := Mnemonic(entropy)
		if err != nil {
			t.Fatalf("Mnemonic(%d bytes) failed: %v", size, err)
		}

		back, err := EntropyFromMnemonic(words)
		if err != nil {
			t.Fatalf("EntropyFromMnemonic failed for %d bytes: %v", size, err)
		}
		if !bytes.Equal(back, entropy) {
			t.Errorf("round trip for %d bytes: got %x, want %x", size, back, entropy)
		}
	}
}

// TestMnemonicKnownVectors checks published BIP39 vectors.
func TestMnemonicKnownVectors(t *testing.T) {
	testCases := []struct {
		name    string
		entropy []byte
		words   string
	}{
		{
			name:    "16 zero bytes",
			entropy: make([]byte, 16),
			words:   "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		},
		{
			name:    "16 0xff bytes",
			entropy: bytes.Repeat([]byte{0xff}, 16),
			words:   "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong",
		},
		{
			name:    "32 zero bytes",
			entropy: make([]byte, 32),
			words:   strings.Repeat("abandon ", 23) + "art",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			words, err := Mnemonic(tc.entropy)
			if err != nil {
				t.Fatalf("Mnemonic failed: %v", err)
			}
			if words != tc.words {
				t.Errorf("mnemonic = %q, want %q", words, tc.words)
			}
		})
	}
}

// TestMnemonicInvalidLength verifies the error for unsupported sizes.
func TestMnemonicInvalidLength(t *testing.T) {
	for _, size := range []int{0, 1, 15, 17, 31, 33, 64} {
		if _, err := Mnemonic(make([]byte, size)); !errors.Is(err, ErrInvalidEntropyLength) {
			t.Errorf("Mnemonic(%d bytes): got %v, want ErrInvalidEntropyLength", size, err)
		}
	}
}

// TestSeedDeterminism verifies repeated derivations agree and the
// passphrase salts the result.
func TestSeedDeterminism(t *testing.T) {
	entropy := make([]byte, 16)
	entropy[0] = 0x42

	words, err := Mnemonic(entropy)
	if err != nil {
		t.Fatalf("Mnemonic failed: %v", err)
	}

	a := Seed(words, "")
	b := Seed(words, "")
	if len(a) != 64 {
		t.Fatalf("seed length = %d, want 64", len(a))
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated Seed calls disagree")
	}

	salted := Seed(words, "passphrase")
	if bytes.Equal(a, salted) {
		t.Error("passphrase did not change the seed")
	}
}

// TestSeedKnownVector checks the published BIP39 seed vector for the
// all-zeros entropy with the TREZOR passphrase.
func TestSeedKnownVector(t *testing.T) {
	words, err := Mnemonic(make([]byte, 16))
	if err != nil {
		t.Fatalf("Mnemonic failed: %v", err)
	}

	seed := Seed(words, "TREZOR")
	want := "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"
	if got := hex.EncodeToString(seed); got != want {
		t.Errorf("seed = %s, want %s", got, want)
	}
}

// TestMasterKeyKnownVector checks the published BIP32 vector 1
// serializations.
func TestMasterKeyKnownVector(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	if err != nil {
		t.Fatalf("decoding seed: %v", err)
	}

	master, err := MasterKey(seed)
	if err != nil {
		t.Fatalf("MasterKey failed: %v", err)
	}

	wantPriv := "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	if got := master.B58Serialize(); got != wantPriv {
		t.Errorf("master private = %s, want %s", got, wantPriv)
	}

	wantPub := "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
	if got := master.PublicKey().B58Serialize(); got != wantPub {
		t.Errorf("master public = %s, want %s", got, wantPub)
	}
}

// TestChildKeyDistinctAccounts verifies different account indices yield
// different keys.
func TestChildKeyDistinctAccounts(t *testing.T) {
	master, err := MasterKey(Seed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", ""))
	if err != nil {
		t.Fatalf("MasterKey failed: %v", err)
	}

	k0, err := ChildKey(master, 0)
	if err != nil {
		t.Fatalf("ChildKey(0) failed: %v", err)
	}
	k1, err := ChildKey(master, 1)
	if err != nil {
		t.Fatalf("ChildKey(1) failed: %v", err)
	}

	if bytes.Equal(k0.Key, k1.Key) {
		t.Error("accounts 0 and 1 derived the same key")
	}
}

// TestChildKeyIndexBounds verifies the hardened-derivation index range.
func TestChildKeyIndexBounds(t *testing.T) {
	master, err := MasterKey(Seed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", ""))
	if err != nil {
		t.Fatalf("MasterKey failed: %v", err)
	}

	if _, err := ChildKey(master, 1<<31); !errors.Is(err, ErrInvalidAccountIndex) {
		t.Errorf("ChildKey(2^31): got %v, want ErrInvalidAccountIndex", err)
	}
	if _, err := ChildKey(master, 1<<31-1); err != nil {
		t.Errorf("ChildKey(2^31-1) failed: %v", err)
	}
	if _, err := ChildKey(master, 0); err != nil {
		t.Errorf("ChildKey(0) failed: %v", err)
	}
}

// TestDeriveAccount covers the full chain and the key-byte extractors.
func TestDeriveAccount(t *testing.T) {
	entropy := make([]byte, 16)

	acct, err := DeriveAccount(entropy, 0)
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	if acct.Index() != 0 {
		t.Errorf("Index() = %d, want 0", acct.Index())
	}

	priv := acct.PrivateKeyBytes()
	if len(priv) != 32 {
		t.Errorf("private key length = %d, want 32", len(priv))
	}

	pub := acct.PublicKeyBytes()
	if len(pub) != 33 {
		t.Errorf("public key length = %d, want 33", len(pub))
	}
	if pub[0] != 0x02 && pub[0] != 0x03 {
		t.Errorf("public key prefix = %#02x, want 0x02 or 0x03", pub[0])
	}

	address, err := acct.Address()
	if err != nil {
		t.Fatalf("Address failed: %v", err)
	}
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		t.Errorf("unexpected address format: %s", address)
	}

	// Fresh derivation is deterministic.
	again, err := DeriveAccount(entropy, 0)
	if err != nil {
		t.Fatalf("second DeriveAccount failed: %v", err)
	}
	if !bytes.Equal(priv, again.PrivateKeyBytes()) {
		t.Error("repeated derivations disagree")
	}

	other, err := DeriveAccount(entropy, 1)
	if err != nil {
		t.Fatalf("DeriveAccount(1) failed: %v", err)
	}
	if bytes.Equal(priv, other.PrivateKeyBytes()) {
		t.Error("accounts 0 and 1 derived the same private key")
	}
}

// TestDeriveAccountInvalidInputs verifies error propagation through the
// full chain.
func TestDeriveAccountInvalidInputs(t *testing.T) {
	if _, err := DeriveAccount(make([]byte, 15), 0); !errors.Is(err, ErrInvalidEntropyLength) {
		t.Errorf("bad entropy: got %v, want ErrInvalidEntropyLength", err)
	}
	if _, err := DeriveAccount(make([]byte, 16), 1<<31); !errors.Is(err, ErrInvalidAccountIndex) {
		t.Errorf("bad index: got %v, want ErrInvalidAccountIndex", err)
	}
}
