// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/toeirei/walletkeeper/buildvars"
)

func TestResolveBuildVersion_MainVersion(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/toeirei/walletkeeper", Version: "v1.2.3"},
	}
	v, c, d := resolveBuildVersion(info)
	if v != "v1.2.3" {
		t.Fatalf("expected v1.2.3 got %s", v)
	}
	if c != gitCommit {
		t.Fatalf("expected commit to equal package gitCommit (default) got %s", c)
	}
	if d != buildDate {
		t.Fatalf("expected date to equal package buildDate (default) got %s", d)
	}
}

func TestResolveBuildVersion_LinkTimeVersionWins(t *testing.T) {
	orig := buildvars.Version
	defer func() { buildvars.Version = orig }()
	buildvars.Version = "v9.9.9"

	info := &debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}}
	if v, _, _ := resolveBuildVersion(info); v != "v9.9.9" {
		t.Fatalf("expected link-time version got %s", v)
	}
}

func TestResolveBuildVersion_VCSSettings(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "d1692e4643ee0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	v, c, d := resolveBuildVersion(info)
	if v != "dev" {
		t.Fatalf("expected dev for devel builds got %s", v)
	}
	if c != "d1692e4" {
		t.Fatalf("expected short revision got %s", c)
	}
	if d != "2026-01-02T03:04:05Z" {
		t.Fatalf("expected vcs time got %s", d)
	}
}

func TestVersionCmdNeedsNoServices(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	// An unusable database must not matter for `version`.
	root.SetArgs([]string{"--database.type", "oracle", "version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Fatal("expected a version string")
	}
}
