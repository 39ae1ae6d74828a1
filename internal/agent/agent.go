// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package agent is the local wallet runtime. It derives wallet keys and, on
// initialization, creates or opens the wallet file for an identity: an
// ed25519 signing key stored in a zstd-compressed YAML payload, sealed with
// the wallet key.
package agent

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	clog "github.com/charmbracelet/log"
	"golang.org/x/crypto/hkdf"

	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
)

var (
	// ErrNoWalletName is returned when an operation needs a wallet name and
	// none was provided.
	ErrNoWalletName = errors.New("agent: wallet name is not set")
	// ErrWrongKey is returned when the wallet file cannot be opened with the
	// identity's key.
	ErrWrongKey = errors.New("agent: wallet key does not open this wallet")
	// ErrNameMismatch is returned when a wallet file belongs to another name.
	ErrNameMismatch = errors.New("agent: wallet file belongs to a different wallet")
)

const keyInfoPrefix = "walletkeeper/wallet-key/"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Agent is a file-backed wallet runtime rooted at a data directory.
type Agent struct {
	dataDir string
	log     *clog.Logger
	random  io.Reader

	mu     sync.Mutex
	opened *Wallet
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger used by the Agent.
func WithLogger(l *clog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// WithRandom replaces the entropy source used for key derivation.
func WithRandom(r io.Reader) Option {
	return func(a *Agent) { a.random = r }
}

// New returns an Agent keeping wallet files in dataDir.
func New(dataDir string, opts ...Option) *Agent {
	a := &Agent{dataDir: dataDir, random: rand.Reader}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logging.OrDefault(a.log)
	return a
}

// DeriveKey returns a fresh 256-bit key bound to name: fresh entropy expanded
// through HKDF-SHA256 with the wallet name as info. The key is encoded with
// unpadded URL-safe base64.
func (a *Agent) DeriveKey(ctx context.Context, name string) (security.Secret, error) {
	if name == "" {
		return nil, ErrNoWalletName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := make([]byte, 32)
	if _, err := io.ReadFull(a.random, seed); err != nil {
		return nil, fmt.Errorf("agent: read entropy: %w", err)
	}
	defer (*security.Secret)(&seed).Zero()

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(keyInfoPrefix+name)), key); err != nil {
		return nil, fmt.Errorf("agent: expand key: %w", err)
	}
	out := security.FromString(base64.RawURLEncoding.EncodeToString(key))
	(*security.Secret)(&key).Zero()
	return out, nil
}

// Initialize opens the wallet for id, creating it on first use.
func (a *Agent) Initialize(ctx context.Context, id model.WalletIdentity) error {
	if id.Name == "" {
		return ErrNoWalletName
	}
	if id.Key.IsEmpty() {
		return fmt.Errorf("agent: wallet %s has no key", id.Name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.dataDir, 0o700); err != nil {
		return fmt.Errorf("agent: create data dir: %w", err)
	}

	path := a.WalletPath(id.Name)
	w, err := readWallet(path, id)
	switch {
	case errors.Is(err, os.ErrNotExist):
		a.log.Info("creating wallet", "name", id.Name, "path", path)
		w, err = createWallet(path, id)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		a.log.Debug("opened wallet", "name", id.Name, "path", path)
	}

	a.mu.Lock()
	a.opened = w
	a.mu.Unlock()
	return nil
}

// Wallet returns the wallet opened by the last successful Initialize.
func (a *Agent) Wallet() (*Wallet, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opened, a.opened != nil
}

// WalletPath returns the file path used for the wallet called name.
func (a *Agent) WalletPath(name string) string {
	return filepath.Join(a.dataDir, unsafeFileChars.ReplaceAllString(name, "_")+".wallet")
}
