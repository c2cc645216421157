// Package keystore writes derived account keys as encrypted keystore v3
// files, compatible with go-ethereum tooling. Encryption is scrypt +
// AES-128-CTR with a keccak-256 MAC.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/scrypt"

	"github.com/monolythium/mono-seedkit/internal/hdkeys"
)

// File is a keystore v3 document.
type File struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto holds the encrypted key data.
type Crypto struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    ScryptParams `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams holds the AES-128-CTR IV.
type CipherParams struct {
	IV string `json:"iv"`
}

// ScryptParams holds the scrypt KDF parameters.
type ScryptParams struct {
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

// Params selects the scrypt cost.
type Params struct {
	N, R, P int
}

// StandardParams match go-ethereum's defaults. Keystore encryption is
// intentionally slow to resist brute force.
var StandardParams = Params{N: 262144, R: 8, P: 1}

// LightParams are for tests and low-memory systems.
var LightParams = Params{N: 4096, R: 8, P: 6}

const dkLen = 32

// Encrypt seals the account's private key under the given password.
func Encrypt(acct hdkeys.Account, password string, params Params) (*File, error) {
	privBytes := acct.PrivateKeyBytes()

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, dkLen)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}

	iv := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generating IV: %w", err)
	}

	// First 16 bytes of the derived key encrypt; bytes 16-32 feed the MAC.
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	ciphertext := make([]byte, len(privBytes))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, privBytes)

	mac := crypto.Keccak256(append(derivedKey[16:32], ciphertext...))

	id, err := newUUID()
	if err != nil {
		return nil, fmt.Errorf("generating id: %w", err)
	}

	address, err := acct.Address()
	if err != nil {
		return nil, err
	}

	return &File{
		Version: 3,
		ID:      id,
		Address: strings.ToLower(strings.TrimPrefix(address, "0x")),
		Crypto: Crypto{
			Cipher:     "aes-128-ctr",
			CipherText: hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{
				IV: hex.EncodeToString(iv),
			},
			KDF: "scrypt",
			KDFParams: ScryptParams{
				N:     params.N,
				R:     params.R,
				P:     params.P,
				DKLen: dkLen,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
	}, nil
}

// Decrypt returns the raw private key bytes sealed in the file.
// WARNING: Returns raw private key bytes - handle with extreme care.
func Decrypt(f *File, password string) ([]byte, error) {
	if f.Crypto.KDF != "scrypt" {
		return nil, errors.New("unsupported KDF: only scrypt is supported")
	}
	if f.Crypto.Cipher != "aes-128-ctr" {
		return nil, errors.New("unsupported cipher: only aes-128-ctr is supported")
	}

	salt, err := hex.DecodeString(f.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}
	ciphertext, err := hex.DecodeString(f.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext: %w", err)
	}
	iv, err := hex.DecodeString(f.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("invalid IV: %w", err)
	}
	storedMAC, err := hex.DecodeString(f.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC: %w", err)
	}

	p := f.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}

	mac := crypto.Keccak256(append(derivedKey[16:32], ciphertext...))
	if subtle.ConstantTimeCompare(storedMAC, mac) != 1 {
		return nil, errors.New("incorrect password or corrupted keystore")
	}

	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	privBytes := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(privBytes, ciphertext)

	return privBytes, nil
}

// Save writes the keystore with owner-only permissions.
func Save(f *File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling keystore: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing keystore: %w", err)
	}
	return nil
}

// Load reads a keystore file without decrypting it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keystore: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing keystore: %w", err)
	}
	if f.Version != 3 || f.Address == "" || f.Crypto.CipherText == "" {
		return nil, errors.New("invalid keystore v3 format")
	}
	return &f, nil
}

// Filename generates a keystore filename in the conventional
// UTC--<timestamp>--<address>.json format.
func Filename(address string) string {
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z")
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	return fmt.Sprintf("UTC--%s--%s.json", timestamp, addr)
}

// newUUID generates a random UUID v4.
func newUUID() (string, error) {
	uuid := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, uuid); err != nil {
		return "", err
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16]), nil
}
