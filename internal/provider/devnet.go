// Package provider contains auth-client implementations for development
// and testing. The hosted provider needs real network transport and a
// browser flow; embedding applications supply their own AuthClient for
// it. The Devnet client here simulates that surface against a local
// entropy file so the full session lifecycle can run offline.
package provider

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/monolythium/mono-seedkit/internal/session"
)

// devnetSecretLen is the entropy size the devnet provider serves
// (256 bits, the largest BIP39-supported size).
const devnetSecretLen = 32

// Devnet is a file-backed AuthClient. Connect creates the entropy file
// on first use, so repeated logins recover the same secret.
type Devnet struct {
	// Path of the entropy file. Empty means DefaultSecretPath().
	Path string
}

// DefaultSecretPath returns the default devnet entropy file location.
func DefaultSecretPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".mono-seedkit", "devnet.secret"), nil
}

func (d *Devnet) secretPath() (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}
	return DefaultSecretPath()
}

// Connect loads (or creates) the local entropy file and returns a
// provider handle serving it.
func (d *Devnet) Connect(ctx context.Context) (session.AuthProvider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.secretPath()
	if err != nil {
		return nil, err
	}
	entropy, err := loadOrCreateSecret(path)
	if err != nil {
		return nil, err
	}
	return &staticProvider{entropy: entropy}, nil
}

// Logout is a no-op for the devnet client; the entropy file stays in
// place so the next login recovers the same secret.
func (d *Devnet) Logout(ctx context.Context) error {
	return ctx.Err()
}

// RemoveSecretFile deletes the devnet entropy file. Missing files are
// not an error.
func (d *Devnet) RemoveSecretFile() error {
	path, err := d.secretPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing secret file: %w", err)
	}
	return nil
}

func loadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != devnetSecretLen {
			return nil, fmt.Errorf("secret file %s: want %d bytes, got %d", path, devnetSecretLen, len(data))
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secret file: %w", err)
	}

	entropy := make([]byte, devnetSecretLen)
	if _, err := io.ReadFull(rand.Reader, entropy); err != nil {
		return nil, fmt.Errorf("generating entropy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating secret directory: %w", err)
	}
	if err := os.WriteFile(path, entropy, 0600); err != nil {
		return nil, fmt.Errorf("writing secret file: %w", err)
	}
	return entropy, nil
}

type staticProvider struct {
	entropy []byte
}

func (p *staticProvider) Request(ctx context.Context, method string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if method != session.MethodPrivateKey {
		return nil, fmt.Errorf("unsupported request method: %s", method)
	}
	return append([]byte(nil), p.entropy...), nil
}

// StaticClient returns an AuthClient whose provider always serves the
// given entropy. Intended for tests.
func StaticClient(entropy []byte) session.AuthClient {
	return &staticClient{entropy: append([]byte(nil), entropy...)}
}

type staticClient struct {
	entropy []byte
}

func (c *staticClient) Connect(ctx context.Context) (session.AuthProvider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticProvider{entropy: c.entropy}, nil
}

func (c *staticClient) Logout(ctx context.Context) error {
	return ctx.Err()
}
