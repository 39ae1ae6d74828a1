// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads Walletkeeper settings from defaults, YAML files,
// WALLETKEEPER_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the persisted application configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Language string `mapstructure:"language" yaml:"language"`
	Wallet   struct {
		NamePrefix string `mapstructure:"name_prefix" yaml:"name_prefix"`
		DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
		Force      bool   `mapstructure:"force" yaml:"force"`
	} `mapstructure:"wallet" yaml:"wallet"`
	Keychain struct {
		// Passphrase seals keychain values at rest when non-empty.
		Passphrase string `mapstructure:"passphrase" yaml:"passphrase,omitempty"`
	} `mapstructure:"keychain" yaml:"keychain"`
}

// Defaults returns the built-in defaults keyed the way viper expects them.
func Defaults() map[string]any {
	dataDir := "./wallets"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "walletkeeper", "wallets")
	}
	return map[string]any{
		"database.type":      "sqlite",
		"database.dsn":       "./walletkeeper.db",
		"language":           "en",
		"wallet.name_prefix": "Topcoder-Dev-",
		"wallet.data_dir":    dataDir,
		"wallet.force":       false,
		"keychain.passphrase": "",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Walletkeeper")
		default: // Linux, macOS, etc.
			configDir = "/etc/walletkeeper"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "walletkeeper")
	}

	return filepath.Join(configDir, "walletkeeper.yaml"), nil
}

// LoadConfig resolves T from, in increasing precedence: defaults, the first
// walletkeeper.yaml found in the user, system or current directory (or the
// explicit file), WALLETKEEPER_* environment variables, and cmd's flags.
// A missing config file is reported as viper.ConfigFileNotFoundError together
// with the config built from the remaining sources.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("walletkeeper")
	v.SetConfigType("yaml")
	if explicitPath != nil {
		v.SetConfigFile(*explicitPath)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	} else if empty(v.ConfigFileUsed()) {
		notFound = viper.ConfigFileNotFoundError{}
	}

	v.SetEnvPrefix("walletkeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, notFound
}

// empty reports whether the file at path has no content.
func empty(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() == 0
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path, creating parent directories.
func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the file may carry the keychain passphrase.
	return os.WriteFile(path, data, 0o600)
}
