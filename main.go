// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Walletkeeper.
//
// Usage:
//
//	go run . [flags] <command>
//	./walletkeeper init
//
// See --help for commands and options.
package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/toeirei/walletkeeper/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Debugf("walletkeeper: %v", err)
		os.Exit(1)
	}
}
