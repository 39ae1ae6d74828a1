// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/i18n"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/ui"
	"github.com/toeirei/walletkeeper/internal/wallet"
)

// testEnv isolates one test: its own config home, database file and wallet
// directory. Commands run against it share state like separate processes.
type testEnv struct {
	t       *testing.T
	dsn     string
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	t.Setenv("WALLETKEEPER_KEYCHAIN_PASSPHRASE", "")
	i18n.Init("en")
	return &testEnv{
		t:       t,
		dsn:     filepath.Join(dir, "walletkeeper.db"),
		dataDir: filepath.Join(dir, "wallets"),
	}
}

// run executes a fresh root command and returns stdout, stderr and the error.
func (e *testEnv) run(stdin io.Reader, args ...string) (string, string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	full := append([]string{
		"--database.type", "sqlite",
		"--database.dsn", e.dsn,
		"--wallet.data_dir", e.dataDir,
	}, args...)
	root.SetArgs(full)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(nil, args...)
	if err != nil {
		e.t.Fatalf("%v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

var identityLine = regexp.MustCompile(`Wallet identity: (Topcoder-Dev-\S+) \(key fingerprint ([0-9a-f]{8})\)`)

func parseIdentity(t *testing.T, out string) (name, fp string) {
	t.Helper()
	m := identityLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no identity in output: %q", out)
	}
	return m[1], m[2]
}

func TestSetupReusesPersistedIdentity(t *testing.T) {
	env := newTestEnv(t)

	name1, fp1 := parseIdentity(t, env.mustRun("setup"))
	name2, fp2 := parseIdentity(t, env.mustRun("setup"))
	if name1 != name2 || fp1 != fp2 {
		t.Fatalf("second setup changed identity: %s/%s -> %s/%s", name1, fp1, name2, fp2)
	}

	name3, fp3 := parseIdentity(t, env.mustRun("setup", "--force"))
	if name3 == name1 || fp3 == fp1 {
		t.Fatalf("forced setup kept identity %s/%s", name3, fp3)
	}
}

func TestSetupWritesDefaultConfigOnFirstRun(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("setup")

	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "walletkeeper", "walletkeeper.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config at %s: %v", path, err)
	}
}

func TestShowWithoutIdentity(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("show")
	if !strings.Contains(out, "No wallet has been provisioned yet.") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestShowPrintsPersistedIdentity(t *testing.T) {
	env := newTestEnv(t)
	name, fp := parseIdentity(t, env.mustRun("setup"))

	out := env.mustRun("show")
	if !strings.Contains(out, "Name: "+name) {
		t.Fatalf("expected name %s in %q", name, out)
	}
	if !strings.Contains(out, "Key fingerprint: "+fp) {
		t.Fatalf("expected fingerprint %s in %q", fp, out)
	}
}

func TestShowCopyUsesClipboard(t *testing.T) {
	env := newTestEnv(t)
	name, _ := parseIdentity(t, env.mustRun("setup"))

	orig := copyToClipboard
	defer func() { copyToClipboard = orig }()
	var copied string
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}

	out := env.mustRun("show", "--copy")
	if copied != name {
		t.Fatalf("clipboard got %q, want %q", copied, name)
	}
	if !strings.Contains(out, "copied to clipboard") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAdoptWithKeyFlag(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("adopt", "--name", "Issued-Wallet", "--key", "issued-key")
	if !strings.Contains(out, "Adopted wallet Issued-Wallet.") {
		t.Fatalf("unexpected output: %q", out)
	}

	// setup reuses the adopted pair.
	name, _ := parseIdentityAny(t, env.mustRun("setup"))
	if name != "Issued-Wallet" {
		t.Fatalf("setup replaced adopted identity with %s", name)
	}
}

func TestAdoptReadsKeyFromStdin(t *testing.T) {
	env := newTestEnv(t)
	_, errOut, err := env.run(strings.NewReader("piped-key\n"), "adopt", "--name", "Piped-Wallet")
	if err != nil {
		t.Fatalf("adopt failed: %v\n%s", err, errOut)
	}

	store, err := db.Open("sqlite", env.dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer store.Close()
	key, ok, err := store.Get(context.Background(), model.SlotWalletKey)
	if err != nil || !ok || key != "piped-key" {
		t.Fatalf("stored key = %q ok=%v err=%v", key, ok, err)
	}
}

func TestAdoptRejectsEmptyKey(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(strings.NewReader("\n"), "adopt", "--name", "No-Key")
	if err == nil {
		t.Fatal("expected adopt with empty key to fail")
	}
}

func TestAdoptKeepsErrorChain(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(strings.NewReader("\n"), "adopt", "--name", "No-Key")
	if !errors.Is(err, wallet.ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "Could not set up the wallet") {
		t.Fatalf("expected localized prefix, got %q", err.Error())
	}
}

func TestAdoptRequiresName(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(nil, "adopt", "--key", "k"); err == nil {
		t.Fatal("expected missing --name to fail")
	}
}

func TestInitStartsRuntime(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("init")
	if !strings.Contains(out, "Wallet is ready.") {
		t.Fatalf("expected ready in %q", out)
	}
	if !strings.Contains(out, "Signing key: SHA256:") {
		t.Fatalf("expected signing key fingerprint in %q", out)
	}

	entries, err := os.ReadDir(env.dataDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one wallet file, got %v (err %v)", entries, err)
	}

	// A second process reopens the same wallet with the persisted key.
	out = env.mustRun("init")
	if !strings.Contains(out, "Wallet is ready.") {
		t.Fatalf("expected ready on reopen in %q", out)
	}
}

func TestInitFailureIsPresented(t *testing.T) {
	env := newTestEnv(t)
	// A regular file where the wallet directory should be.
	if err := os.WriteFile(env.dataDir, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := env.run(nil, "init")
	if !errors.Is(err, errInitFailed) {
		t.Fatalf("expected errInitFailed, got %v", err)
	}
	if !strings.Contains(errOut, "Wallet error") {
		t.Fatalf("expected presented error in stderr %q", errOut)
	}
	if strings.Contains(out, "Wallet is ready.") {
		t.Fatalf("ready reported after failure: %q", out)
	}
}

func TestSealedKeychain(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("WALLETKEEPER_KEYCHAIN_PASSPHRASE", "correct horse")
	name, _ := parseIdentity(t, env.mustRun("setup"))

	store, err := db.Open("sqlite", env.dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	raw, _, err := store.Get(context.Background(), model.SlotWalletName)
	store.Close()
	if err != nil {
		t.Fatal(err)
	}
	if raw == name || !strings.HasPrefix(raw, "sealed:") {
		t.Fatalf("name stored in clear: %q", raw)
	}

	out := env.mustRun("show")
	if !strings.Contains(out, "Name: "+name) {
		t.Fatalf("sealed identity not readable: %q", out)
	}
}

func TestSetupWithWrongPassphraseKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("WALLETKEEPER_KEYCHAIN_PASSPHRASE", "right")
	name, fp := parseIdentity(t, env.mustRun("setup"))

	t.Setenv("WALLETKEEPER_KEYCHAIN_PASSPHRASE", "typo")
	if _, _, err := env.run(nil, "setup"); !errors.Is(err, wallet.ErrRecordUnreadable) {
		t.Fatalf("expected ErrRecordUnreadable, got %v", err)
	}

	t.Setenv("WALLETKEEPER_KEYCHAIN_PASSPHRASE", "right")
	name2, fp2 := parseIdentity(t, env.mustRun("setup"))
	if name2 != name || fp2 != fp {
		t.Fatalf("record replaced after wrong passphrase: %s/%s -> %s/%s", name, fp, name2, fp2)
	}
}

func TestInteractiveOutcome(t *testing.T) {
	p := ui.NewProgress("W1", make(chan struct{}), func() error { return nil })
	if err := interactiveOutcome(p); err != nil {
		t.Fatalf("expected nil for an untouched view, got %v", err)
	}

	m, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	quit, ok := m.(ui.Progress)
	if !ok {
		t.Fatalf("unexpected model type %T", m)
	}
	if err := interactiveOutcome(quit); !errors.Is(err, errStoppedWaiting) {
		t.Fatalf("expected errStoppedWaiting after quitting, got %v", err)
	}
}

func TestDBMaintain(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("setup")
	out := env.mustRun("db", "maintain")
	if !strings.Contains(out, "Database maintenance complete.") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestUnsupportedDatabaseType(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(nil, "--database.type", "oracle", "show"); err == nil {
		t.Fatal("expected unsupported database type to fail")
	}
}

var anyIdentityLine = regexp.MustCompile(`Wallet identity: (\S+) \(key fingerprint ([0-9a-f]{8})\)`)

func parseIdentityAny(t *testing.T, out string) (name, fp string) {
	t.Helper()
	m := anyIdentityLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no identity in output: %q", out)
	}
	return m[1], m[2]
}
