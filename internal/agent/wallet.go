// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package agent

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/ssh"

	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
)

const envelopeVersion = 1

// Wallet is the public view of an opened wallet file.
type Wallet struct {
	Name        string
	CreatedAt   time.Time
	PublicKey   string // authorized_keys line
	Fingerprint string // SHA256 fingerprint of the signing key
}

// envelope is the on-disk wallet file. Only Sealed is secret.
type envelope struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name"`
	Sealed  string `yaml:"sealed"`
}

// payload is the sealed content of an envelope.
type payload struct {
	Name       string    `yaml:"name"`
	CreatedAt  time.Time `yaml:"created_at"`
	PrivateKey string    `yaml:"private_key"`
	PublicKey  string    `yaml:"public_key"`
}

func createWallet(path string, id model.WalletIdentity) (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("agent: generate signing key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, id.Name)
	if err != nil {
		return nil, fmt.Errorf("agent: marshal signing key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("agent: marshal public key: %w", err)
	}

	p := payload{
		Name:       id.Name,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		PrivateKey: string(pem.EncodeToMemory(block)),
		PublicKey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))),
	}
	plain, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("agent: encode wallet: %w", err)
	}
	compressed, err := compress(plain)
	(*security.Secret)(&plain).Zero()
	if err != nil {
		return nil, err
	}
	sealed, err := security.Seal(id.Key, compressed)
	if err != nil {
		return nil, fmt.Errorf("agent: seal wallet: %w", err)
	}

	data, err := yaml.Marshal(envelope{
		Version: envelopeVersion,
		Name:    id.Name,
		Sealed:  base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, fmt.Errorf("agent: encode envelope: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}
	return &Wallet{Name: id.Name, CreatedAt: p.CreatedAt, PublicKey: p.PublicKey, Fingerprint: ssh.FingerprintSHA256(sshPub)}, nil
}

func readWallet(path string, id model.WalletIdentity) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("agent: parse wallet file %s: %w", path, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("agent: unsupported wallet file version %d", env.Version)
	}
	if env.Name != id.Name {
		return nil, fmt.Errorf("%w: %s", ErrNameMismatch, env.Name)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Sealed)
	if err != nil {
		return nil, fmt.Errorf("agent: decode wallet file %s: %w", path, err)
	}
	compressed, err := security.Open(id.Key, sealed)
	if err != nil {
		if errors.Is(err, security.ErrOpen) {
			return nil, ErrWrongKey
		}
		return nil, err
	}
	plain, err := decompress(compressed)
	if err != nil {
		return nil, err
	}
	defer (*security.Secret)(&plain).Zero()

	var p payload
	if err := yaml.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("agent: parse wallet payload: %w", err)
	}
	if _, err := ssh.ParseRawPrivateKey([]byte(p.PrivateKey)); err != nil {
		return nil, fmt.Errorf("agent: wallet signing key is unreadable: %w", err)
	}
	sshPub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(p.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("agent: wallet public key is unreadable: %w", err)
	}
	return &Wallet{Name: p.Name, CreatedAt: p.CreatedAt, PublicKey: p.PublicKey, Fingerprint: ssh.FingerprintSHA256(sshPub)}, nil
}

func compress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("agent: zstd writer: %w", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll(src, nil), nil
}

func decompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("agent: zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: decompress wallet: %w", err)
	}
	return out, nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place, so readers never see a partial wallet file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wallet-*")
	if err != nil {
		return fmt.Errorf("agent: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("agent: write wallet: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("agent: chmod wallet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("agent: close wallet: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("agent: install wallet: %w", err)
	}
	return nil
}
