// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/walletkeeper/internal/i18n"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
	"github.com/toeirei/walletkeeper/internal/ui"
)

// defaultInitTimeout bounds how long `init` waits for the terminal signal.
const defaultInitTimeout = 2 * time.Minute

// copyToClipboard is swapped in tests; headless CI has no clipboard.
var copyToClipboard = clipboard.WriteAll

func newSetupCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the wallet identity, reusing a persisted one",
		Long: `Reuses the persisted wallet name and key when both are present.
Otherwise, or with --force, a fresh name and key are generated and stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.provisioner.SetupWallet(cmd.Context(), force || a.cfg.Wallet.Force)
			if err != nil {
				return setupError(err)
			}
			printf(cmd.OutOrStdout(), "%s\n", i18n.T("wallet.setup.done", id.Name, id.Key.Fingerprint()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate the identity even if one is persisted")
	return cmd
}

func newAdoptCmd(a *app) *cobra.Command {
	var name, key string
	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Store an externally issued wallet name and key",
		Long: `Persists the given wallet name and key as the active identity.
When --key is omitted the key is read from the terminal without echo,
or from the first line of standard input when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := security.FromString(key)
			if secret.IsEmpty() {
				var err error
				secret, err = readKey(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			defer secret.Zero()

			if err := a.provisioner.Setup(cmd.Context(), name, secret); err != nil {
				return setupError(err)
			}
			printf(cmd.OutOrStdout(), "%s\n", i18n.T("wallet.adopt.done", name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Wallet name")
	cmd.Flags().StringVar(&key, "key", "", "Wallet key (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readKey prompts for the key without echo on a terminal, and reads one line
// from in otherwise.
func readKey(in io.Reader, prompt io.Writer) (security.Secret, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		printf(prompt, "%s", i18n.T("wallet.adopt.prompt_key"))
		b, err := term.ReadPassword(int(f.Fd()))
		printf(prompt, "\n")
		if err != nil {
			return nil, fmt.Errorf("read wallet key: %w", err)
		}
		return security.FromBytes(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read wallet key: %w", err)
	}
	return security.FromString(strings.TrimRight(line, "\r\n")), nil
}

func newShowCmd(a *app) *cobra.Command {
	var copyName bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the persisted wallet identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.persistedIdentity(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !id.IsComplete() {
				printf(out, "%s\n", i18n.T("wallet.show.none"))
				return nil
			}
			printf(out, "%s\n", i18n.T("wallet.show.name", id.Name))
			printf(out, "%s\n", i18n.T("wallet.show.key", id.Key.Fingerprint()))
			if copyName {
				if err := copyToClipboard(id.Name); err != nil {
					return fmt.Errorf("copy wallet name: %w", err)
				}
				printf(out, "%s\n", i18n.T("wallet.show.copied"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyName, "copy", false, "Copy the wallet name to the clipboard")
	return cmd
}

// persistedIdentity reads both slots straight from the keychain without
// provisioning anything.
func (a *app) persistedIdentity(ctx context.Context) (model.WalletIdentity, error) {
	name, _, err := a.keychain.Get(ctx, model.SlotWalletName)
	if err != nil {
		return model.WalletIdentity{}, err
	}
	key, _, err := a.keychain.Get(ctx, model.SlotWalletKey)
	if err != nil {
		return model.WalletIdentity{}, err
	}
	return model.WalletIdentity{Name: name, Key: security.FromString(key)}, nil
}

func newInitCmd(a *app) *cobra.Command {
	var (
		force       bool
		interactive bool
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Provision the identity and start the wallet runtime",
		Long: `Provisions the wallet identity like "setup", then starts the wallet
runtime once and waits for it to report ready or failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := a.provisioner.SetupWallet(ctx, force || a.cfg.Wallet.Force)
			if err != nil {
				return setupError(err)
			}

			ready, unsubscribe := a.bus.Subscribe()
			defer unsubscribe()
			a.initializer.TryInitialize(ctx)

			waitCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if interactive {
				p, err := ui.RunProgress(waitCtx, id.Name, a.initializer.Done(), a.initializer.Err, cmd.InOrStdin(), out)
				if err != nil && waitCtx.Err() == nil {
					return err
				}
				if err := interactiveOutcome(p); err != nil {
					return err
				}
			} else {
				printf(out, "%s\n", i18n.T("wallet.init.waiting", id.Name))
			}

			select {
			case <-ready:
			case <-a.initializer.Done():
				if a.initializer.Err() != nil {
					return errInitFailed
				}
			case <-waitCtx.Done():
				return errors.New(i18n.T("error.timeout"))
			}

			if !interactive {
				printf(out, "%s\n", i18n.T("wallet.init.ready"))
			}
			if w, ok := a.agent.Wallet(); ok {
				printf(out, "%s\n", i18n.T("wallet.init.public_key", w.Fingerprint))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate the identity before starting")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Show a progress view while waiting")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultInitTimeout, "How long to wait for the runtime (0 waits forever)")
	return cmd
}

// setupError keeps err in the chain behind the localized message.
func setupError(err error) error {
	return fmt.Errorf("%s: %w", i18n.T("error.setup"), err)
}

// interactiveOutcome maps the final progress view to the command result.
// Quitting the view early is a failure: the runtime has not reported ready.
func interactiveOutcome(p ui.Progress) error {
	if p.Interrupted() {
		return fmt.Errorf("%s: %w", i18n.T("error.stopped_waiting"), errStoppedWaiting)
	}
	return nil
}
