// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/walletkeeper/buildvars"
	"github.com/toeirei/walletkeeper/internal/agent"
	"github.com/toeirei/walletkeeper/internal/config"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/events"
	"github.com/toeirei/walletkeeper/internal/i18n"
	"github.com/toeirei/walletkeeper/internal/keychain"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/security"
	"github.com/toeirei/walletkeeper/internal/ui"
	"github.com/toeirei/walletkeeper/internal/wallet"
)

var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var (
	// errInitFailed is returned by `init` after the failure has already been
	// presented, so cobra only needs to set the exit code.
	errInitFailed = errors.New("wallet initialization failed")
	// errStoppedWaiting is returned by `init --interactive` when the user
	// quit the progress view before the terminal signal arrived.
	errStoppedWaiting = errors.New("stopped waiting for the wallet runtime")
)

// app holds the services shared by every subcommand of one root command.
type app struct {
	cfg     config.Config
	cfgFile string
	verbose bool

	store       *db.KeychainStore
	keychain    wallet.SecureStore
	agent       *agent.Agent
	bus         *events.Bus
	presenter   *ui.ErrorPresenter
	provisioner *wallet.Provisioner
	initializer *wallet.Initializer
}

func (a *app) setupDefaultServices(cmd *cobra.Command, _ []string) error {
	if a.verbose {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	var explicit *string
	if cmd.Flags().Changed("config") && a.cfgFile != "" {
		if _, err := os.Stat(a.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		explicit = &a.cfgFile
	}

	var err error
	a.cfg, err = config.LoadConfig[config.Config](cmd, config.Defaults(), explicit)
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run, or the config file was deleted. Persist the defaults
		// so the user has a file to edit; the app can run without it.
		if writeErr := config.WriteConfigFile(&a.cfg, false); writeErr != nil {
			log.Warnf("could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	i18n.Init(a.cfg.Language)

	a.store, err = db.Open(a.cfg.Database.Type, a.cfg.Database.Dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("error.init_db"), err)
	}
	a.keychain = a.store
	if a.cfg.Keychain.Passphrase != "" {
		a.keychain = keychain.Seal(a.store, security.FromString(a.cfg.Keychain.Passphrase))
	}

	a.agent = agent.New(a.cfg.Wallet.DataDir)
	a.bus = events.NewBus(1)
	a.presenter = ui.NewErrorPresenter(cmd.ErrOrStderr())
	a.provisioner = wallet.NewProvisioner(a.keychain, a.agent, wallet.WithNamePrefix(a.cfg.Wallet.NamePrefix))
	a.initializer = wallet.NewInitializer(a.agent, a.provisioner, a.bus, a.presenter)
	return nil
}

func (a *app) close(*cobra.Command, []string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "walletkeeper",
		Short: "Walletkeeper provisions and starts a wallet identity.",
		Long: `Walletkeeper generates a wallet name and key once, keeps them in a
keychain database, and reuses them on every start. The wallet runtime is
initialized at most once per process; readiness or failure is reported once.`,
		Version:            compositeVersion(nil),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setupDefaultServices,
		PersistentPostRunE: a.close,
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("database.dsn", "./walletkeeper.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("wallet.data_dir", "", "Directory holding wallet files")

	cmd.AddCommand(
		newSetupCmd(a),
		newAdoptCmd(a),
		newShowCmd(a),
		newInitCmd(a),
		newDBCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// No services needed.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), compositeVersion(nil))
			return err
		},
	}
}

func compositeVersion(info *debug.BuildInfo) string {
	v, c, d := resolveBuildVersion(info)
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}

// resolveBuildVersion prefers link-time values and falls back to the
// module version and VCS settings embedded by the Go toolchain.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault("dev")
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info == nil {
		return resolvedVersion, resolvedCommit, resolvedDate
	}
	if resolvedVersion == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		resolvedVersion = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if s.Value != "" && resolvedCommit == "dev" {
				resolvedCommit = s.Value
				if len(resolvedCommit) > 7 {
					resolvedCommit = resolvedCommit[:7]
				}
			}
		case "vcs.time":
			if s.Value != "" && resolvedDate == "" {
				resolvedDate = s.Value
			}
		}
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
