// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/toeirei/walletkeeper/internal/keychain"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
)

// Provisioner establishes the active wallet identity, either by reusing the
// pair persisted in the secure store or by generating a new one.
//
// Provisioning calls are serialized: no second call can observe or modify the
// identity between name generation, key derivation and persistence.
type Provisioner struct {
	store   SecureStore
	deriver KeyDeriver
	prefix  string
	token   func() string
	log     *clog.Logger

	mu     sync.Mutex
	active model.WalletIdentity
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithNamePrefix sets the human-readable prefix of generated wallet names.
func WithNamePrefix(prefix string) ProvisionerOption {
	return func(p *Provisioner) { p.prefix = prefix }
}

// WithTokenSource replaces the unique token generator used for wallet names.
func WithTokenSource(fn func() string) ProvisionerOption {
	return func(p *Provisioner) { p.token = fn }
}

// WithProvisionerLogger sets the logger used by the Provisioner.
func WithProvisionerLogger(l *clog.Logger) ProvisionerOption {
	return func(p *Provisioner) { p.log = l }
}

// NewProvisioner returns a Provisioner reading and writing store and deriving
// keys through deriver.
func NewProvisioner(store SecureStore, deriver KeyDeriver, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		store:   store,
		deriver: deriver,
		prefix:  model.DefaultNamePrefix,
		token:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logging.OrDefault(p.log)
	return p
}

// Identity returns a snapshot of the active identity and whether one is set.
func (p *Provisioner) Identity() (model.WalletIdentity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := model.WalletIdentity{Name: p.active.Name, Key: security.FromBytes(p.active.Key)}
	return id, id.IsComplete()
}

// SetupWallet makes a wallet identity active. When the store holds both slots
// and force is false the stored pair is adopted without writing anything.
// Otherwise a new name is generated, its key derived, and both persisted,
// overwriting any previous record. A record that exists but cannot be decoded
// fails with ErrRecordUnreadable unless force is set.
func (p *Provisioner) SetupWallet(ctx context.Context, force bool) (model.WalletIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, err := p.readRecord(ctx)
	if err != nil {
		if !force {
			return model.WalletIdentity{}, err
		}
		p.log.Warn("overwriting unreadable wallet record", "err", err)
	}
	if prev.IsComplete() && !force {
		p.active = prev
		p.log.Debug("reusing persisted wallet", "name", prev.Name, "key", prev.Key.Fingerprint())
		return p.snapshot(), nil
	}

	name := p.prefix + p.token()
	p.log.Info("wallet name generated", "name", name, "forced", force)

	key, err := p.deriver.DeriveKey(ctx, name)
	if err != nil {
		return model.WalletIdentity{}, fmt.Errorf("%w for %s: %v", ErrKeyDerivation, name, err)
	}
	if key.IsEmpty() {
		return model.WalletIdentity{}, fmt.Errorf("%w for %s: runtime returned an empty key", ErrKeyDerivation, name)
	}

	id := model.WalletIdentity{Name: name, Key: key}
	if err := p.persist(ctx, id, prev); err != nil {
		return model.WalletIdentity{}, err
	}
	p.active = id
	return p.snapshot(), nil
}

// Setup adopts an externally issued name/key pair: both slots are persisted
// and, only once that succeeded, the pair becomes the active identity.
func (p *Provisioner) Setup(ctx context.Context, name string, key security.Secret) error {
	if name == "" || key.IsEmpty() {
		return ErrInvalidIdentity
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, err := p.readRecord(ctx)
	if err != nil {
		p.log.Warn("replacing unreadable wallet record", "err", err)
	}
	id := model.WalletIdentity{Name: name, Key: security.FromBytes(key)}
	if err := p.persist(ctx, id, prev); err != nil {
		return err
	}
	p.active = id
	return nil
}

// readRecord loads the persisted pair. Read failures are treated as an absent
// record so that provisioning falls through to generation. A slot that holds
// data which cannot be opened is reported as ErrRecordUnreadable instead.
func (p *Provisioner) readRecord(ctx context.Context) (model.WalletIdentity, error) {
	var vals [2]string
	for i, slot := range []string{model.SlotWalletName, model.SlotWalletKey} {
		v, ok, err := p.store.Get(ctx, slot)
		switch {
		case errors.Is(err, keychain.ErrSealed):
			return model.WalletIdentity{}, fmt.Errorf("%w: %s: %v", ErrRecordUnreadable, slot, err)
		case err != nil:
			p.log.Warn("could not read wallet slot from keychain", "slot", slot, "err", err)
			return model.WalletIdentity{}, nil
		case !ok || v == "":
			return model.WalletIdentity{}, nil
		}
		vals[i] = v
	}
	return model.WalletIdentity{Name: vals[0], Key: security.FromString(vals[1])}, nil
}

// persist writes both slots. Stores implementing BatchWriter get a single
// transaction. Other stores get the key first, then the name. If the name
// write fails the key slot goes back to the previous key, or is cleared when
// no complete previous pair is known, so the store never pairs a name with a
// key that was not generated for it.
func (p *Provisioner) persist(ctx context.Context, id, prev model.WalletIdentity) error {
	if bw, ok := p.store.(BatchWriter); ok {
		err := bw.SetMany(ctx, map[string]string{
			model.SlotWalletName: id.Name,
			model.SlotWalletKey:  id.Key.Reveal(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}

	if err := p.store.Set(ctx, model.SlotWalletKey, id.Key.Reveal()); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, model.SlotWalletKey, err)
	}
	if err := p.store.Set(ctx, model.SlotWalletName, id.Name); err != nil {
		restore := ""
		if prev.IsComplete() {
			restore = prev.Key.Reveal()
		}
		if rerr := p.store.Set(ctx, model.SlotWalletKey, restore); rerr != nil {
			p.log.Error("could not roll back wallet key", "err", rerr)
		}
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, model.SlotWalletName, err)
	}
	return nil
}

func (p *Provisioner) snapshot() model.WalletIdentity {
	return model.WalletIdentity{Name: p.active.Name, Key: security.FromBytes(p.active.Key)}
}
