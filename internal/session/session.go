// Package session manages the social-login session lifecycle and the
// recovered seed secret. A Session moves through three states:
// uninitialized -> initialized -> secret recovered. All derived key
// material is a pure function of the recovered entropy; forgetting the
// secret makes every derivation fail closed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/monolythium/mono-seedkit/internal/chains"
	"github.com/monolythium/mono-seedkit/internal/hdkeys"
)

// MethodPrivateKey is the provider request method returning the raw
// entropy bytes for the authenticated user.
const MethodPrivateKey = "private_key"

// DefaultMode is the provider UX mode passed to the client factory when
// the config leaves it empty.
const DefaultMode = "popup"

var (
	ErrNotInitialized     = errors.New("session not initialized")
	ErrSecretNotRecovered = errors.New("no secret recovered for this session")
	ErrLoginCancelled     = errors.New("login cancelled")
)

// AuthProvider is a connected identity-provider handle.
type AuthProvider interface {
	Request(ctx context.Context, method string) ([]byte, error)
}

// AuthClient is the four-operation surface this package needs from an
// identity-provider SDK. Connect runs the interactive login flow and may
// block until the user completes or abandons it.
type AuthClient interface {
	Connect(ctx context.Context) (AuthProvider, error)
	Logout(ctx context.Context) error
}

// ClientFactory builds an AuthClient from a resolved config. It stands
// in for the provider SDK's configure call, so sessions can be tested
// with a fake client.
type ClientFactory func(cfg Config) (AuthClient, error)

// Config holds everything needed to configure the provider client.
type Config struct {
	// APIKey identifies this application to the provider. Required.
	APIKey string
	// ChainConfig is the chain handed to the provider. Zero value means
	// chains.DefaultTestChainConfig().
	ChainConfig chains.ChainConfig
	// Network selects the provider environment. Empty means
	// chains.DefaultNetwork.
	Network chains.ProviderNetwork
	// Mode is the provider UX mode. Empty means DefaultMode.
	Mode string
	// LoginTimeout bounds the interactive login when set. Zero means
	// wait indefinitely.
	LoginTimeout time.Duration
}

// Session owns the provider client handle and the recovered entropy.
// It replaces the process-wide singletons of earlier SDKs with an
// explicit object, so callers can hold independent sessions and inject
// fake clients in tests.
type Session struct {
	mu      sync.Mutex
	factory ClientFactory
	cfg     Config
	client  AuthClient
	entropy []byte
}

// New returns an uninitialized session backed by the given factory.
func New(factory ClientFactory) *Session {
	return &Session{factory: factory}
}

// Initialize resolves defaults and constructs the provider client.
// Calling it on an already-initialized session replaces the client and
// drops any recovered secret: the old session is invalidated, so a
// secret recovered through it must not outlive it.
func (s *Session) Initialize(cfg Config) error {
	if cfg.APIKey == "" {
		return errors.New("api key is required")
	}
	if cfg.Network == "" {
		cfg.Network = chains.DefaultNetwork
	}
	if _, err := chains.ChainConfigFor(cfg.Network); err != nil {
		return err
	}
	if cfg.ChainConfig == (chains.ChainConfig{}) {
		cfg.ChainConfig = chains.DefaultTestChainConfig()
	}
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}

	client, err := s.factory(cfg)
	if err != nil {
		return fmt.Errorf("configuring provider client: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSecretLocked()
	s.cfg = cfg
	s.client = client
	return nil
}

// RecoverSecret runs the interactive login flow and stores the entropy
// the provider returns. It blocks until the user completes or abandons
// the flow, the context is cancelled, or the configured LoginTimeout
// expires. On cancellation the session stays initialized with no secret.
func (s *Session) RecoverSecret(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return false, ErrNotInitialized
	}

	if s.cfg.LoginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LoginTimeout)
		defer cancel()
	}

	provider, err := s.client.Connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("%w: %v", ErrLoginCancelled, ctx.Err())
		}
		return false, fmt.Errorf("connecting to provider: %w", err)
	}

	raw, err := provider.Request(ctx, MethodPrivateKey)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("%w: %v", ErrLoginCancelled, ctx.Err())
		}
		return false, fmt.Errorf("requesting %s: %w", MethodPrivateKey, err)
	}
	if !hdkeys.ValidEntropyLen(len(raw)) {
		return false, fmt.Errorf("provider returned %d bytes: %w", len(raw), hdkeys.ErrInvalidEntropyLength)
	}

	s.clearSecretLocked()
	s.entropy = append([]byte(nil), raw...)
	return true, nil
}

// Entropy returns a copy of the recovered entropy.
func (s *Session) Entropy() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, ErrNotInitialized
	}
	if s.entropy == nil {
		return nil, ErrSecretNotRecovered
	}
	return append([]byte(nil), s.entropy...), nil
}

// ForgetSecret logs out of the provider and drops the recovered entropy.
// The secret is zeroed regardless of the logout outcome: a caller who
// asked to forget must not be left holding a live secret because the
// provider round trip failed. The logout error is still returned.
func (s *Session) ForgetSecret(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return ErrNotInitialized
	}

	err := s.client.Logout(ctx)
	s.clearSecretLocked()
	if err != nil {
		return fmt.Errorf("provider logout: %w", err)
	}
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// SecretRecovered reports whether a secret is currently held.
func (s *Session) SecretRecovered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entropy != nil
}

// Network returns the provider network the session was initialized with.
func (s *Session) Network() chains.ProviderNetwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Network
}

func (s *Session) clearSecretLocked() {
	for i := range s.entropy {
		s.entropy[i] = 0
	}
	s.entropy = nil
}

// Mnemonic recomputes the BIP39 encoding of the recovered entropy.
func (s *Session) Mnemonic() (string, error) {
	entropy, err := s.Entropy()
	if err != nil {
		return "", err
	}
	return hdkeys.Mnemonic(entropy)
}

// Account derives the child key at the given account index, running the
// full chain fresh. Nothing is cached between calls.
func (s *Session) Account(index uint32) (hdkeys.Account, error) {
	entropy, err := s.Entropy()
	if err != nil {
		return hdkeys.Account{}, err
	}
	return hdkeys.DeriveAccount(entropy, index)
}

// PrivateKeyBytes derives the account at index and returns its raw
// private key bytes.
func (s *Session) PrivateKeyBytes(index uint32) ([]byte, error) {
	acct, err := s.Account(index)
	if err != nil {
		return nil, err
	}
	return acct.PrivateKeyBytes(), nil
}

// PublicKeyBytes derives the account at index and returns its compressed
// public key bytes.
func (s *Session) PublicKeyBytes(index uint32) ([]byte, error) {
	acct, err := s.Account(index)
	if err != nil {
		return nil, err
	}
	return acct.PublicKeyBytes(), nil
}
