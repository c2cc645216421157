// Package hdkeys derives Monolythium account keys from recovered entropy.
// The chain is entropy -> BIP39 mnemonic -> seed -> BIP32 master key ->
// child key at m/44'/634'/account'/0/0. Every function is pure; nothing
// here caches key material.
package hdkeys

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Fixed derivation path constants. 634 is Monolythium's registered
// SLIP-44 coin type.
const (
	Purpose  uint32 = 44
	CoinType uint32 = 634
)

// maxAccountIndex is the largest account usable in a hardened derivation
// step (the hardened bit consumes the top bit of the index).
const maxAccountIndex = 1<<31 - 1

var (
	ErrInvalidEntropyLength = errors.New("entropy must be 128, 160, 192, 224 or 256 bits")
	ErrInvalidAccountIndex  = errors.New("account index must be below 2^31")
)

// ValidEntropyLen reports whether n bytes is a BIP39-supported entropy
// size.
func ValidEntropyLen(n int) bool {
	switch n {
	case 16, 20, 24, 28, 32:
		return true
	}
	return false
}

// Mnemonic encodes entropy as a checksummed BIP39 word sequence.
func Mnemonic(entropy []byte) (string, error) {
	if !ValidEntropyLen(len(entropy)) {
		return "", fmt.Errorf("%w: got %d bits", ErrInvalidEntropyLength, len(entropy)*8)
	}
	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encoding mnemonic: %w", err)
	}
	return words, nil
}

// EntropyFromMnemonic is the inverse of Mnemonic.
func EntropyFromMnemonic(mnemonic string) ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("decoding mnemonic: %w", err)
	}
	return entropy, nil
}

// Seed stretches a mnemonic (and optional passphrase) into a 64-byte
// seed via PBKDF2.
func Seed(mnemonic, passphrase string) []byte {
	return bip39.NewSeed(mnemonic, passphrase)
}

// MasterKey derives the BIP32 root key from a seed.
func MasterKey(seed []byte) (*bip32.Key, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	return key, nil
}

// ChildKey walks m/44'/634'/account'/0/0 from the master key.
func ChildKey(master *bip32.Key, account uint32) (*bip32.Key, error) {
	if account > maxAccountIndex {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAccountIndex, account)
	}

	path := []uint32{
		bip32.FirstHardenedChild + Purpose,
		bip32.FirstHardenedChild + CoinType,
		bip32.FirstHardenedChild + account,
		0,
		0,
	}

	key := master
	for i, idx := range path {
		next, err := key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("deriving path segment %d: %w", i, err)
		}
		key = next
	}
	return key, nil
}

// Account wraps the child key derived for one account index.
// The private key is kept in memory and NEVER logged.
type Account struct {
	index uint32
	key   *bip32.Key
}

// DeriveAccount runs the full chain entropy -> mnemonic -> seed ->
// master -> child for the given account index. Each call derives fresh;
// callers on a hot path should hold on to the result themselves.
func DeriveAccount(entropy []byte, account uint32) (Account, error) {
	words, err := Mnemonic(entropy)
	if err != nil {
		return Account{}, err
	}

	master, err := MasterKey(Seed(words, ""))
	if err != nil {
		return Account{}, err
	}

	child, err := ChildKey(master, account)
	if err != nil {
		return Account{}, err
	}

	return Account{index: account, key: child}, nil
}

// Index returns the account index this key was derived at.
func (a Account) Index() uint32 {
	return a.index
}

// PrivateKeyBytes returns the raw 32-byte private key.
// WARNING: This exposes the private key - use with extreme caution.
func (a Account) PrivateKeyBytes() []byte {
	return append([]byte(nil), a.key.Key...)
}

// PublicKeyBytes returns the 33-byte compressed public key.
func (a Account) PublicKeyBytes() []byte {
	return append([]byte(nil), a.key.PublicKey().Key...)
}

// Address returns the 0x-prefixed EVM address for this account, using
// go-ethereum's address derivation.
func (a Account) Address() (string, error) {
	priv, err := crypto.ToECDSA(a.key.Key)
	if err != nil {
		return "", fmt.Errorf("parsing derived key: %w", err)
	}
	return crypto.PubkeyToAddress(priv.PublicKey).Hex(), nil
}
