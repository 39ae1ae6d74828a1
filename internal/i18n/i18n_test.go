// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"sort"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}
	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q, got %v", k, av)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")
	if got := T("wallet.init.ready"); got != "Wallet is ready." {
		t.Fatalf("unexpected translation %q", got)
	}
	if got := T("wallet.show.name", "W1"); got != "Name: W1" {
		t.Fatalf("unexpected formatted translation %q", got)
	}

	SetLang("de")
	defer SetLang("en")
	if got := T("wallet.init.ready"); got != "Wallet ist bereit." {
		t.Fatalf("expected German translation, got %q", got)
	}
}

func TestT_MissingIDFallsBack(t *testing.T) {
	Init("en")
	if got := T("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected ID fallback, got %q", got)
	}
}

func loadKeys(t *testing.T, name string) []string {
	t.Helper()
	data, err := localeFS.ReadFile("locales/" + name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TestLocalesHaveSameKeys keeps every catalog in step with the primary
// English one.
func TestLocalesHaveSameKeys(t *testing.T) {
	primary := loadKeys(t, "active.en.yaml")
	files, err := localeFS.ReadDir("locales")
	if err != nil {
		t.Fatalf("read locales: %v", err)
	}
	for _, f := range files {
		if f.Name() == "active.en.yaml" {
			continue
		}
		other := loadKeys(t, f.Name())
		if len(other) != len(primary) {
			t.Fatalf("%s has %d keys, primary has %d", f.Name(), len(other), len(primary))
		}
		for i := range primary {
			if primary[i] != other[i] {
				t.Fatalf("%s: key mismatch %q vs %q", f.Name(), other[i], primary[i])
			}
		}
	}
}
