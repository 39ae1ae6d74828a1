// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/i18n"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Keychain database tasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "maintain",
		Short: "Run engine-specific maintenance on the keychain database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := db.RunDBMaintenance(cmd.Context(), a.cfg.Database.Type, a.cfg.Database.Dsn); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", i18n.T("db.maintain.done"))
			return nil
		},
	})
	return cmd
}
