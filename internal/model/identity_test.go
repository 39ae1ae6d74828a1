// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
	"testing"

	"github.com/toeirei/walletkeeper/internal/security"
)

func TestWalletIdentity_IsComplete(t *testing.T) {
	tests := []struct {
		name string
		id   WalletIdentity
		want bool
	}{
		{"empty", WalletIdentity{}, false},
		{"name only", WalletIdentity{Name: "W1"}, false},
		{"key only", WalletIdentity{Key: security.FromString("K1")}, false},
		{"both", WalletIdentity{Name: "W1", Key: security.FromString("K1")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.IsComplete(); got != tt.want {
				t.Fatalf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalletIdentity_StringNeverRevealsKey(t *testing.T) {
	id := WalletIdentity{Name: "W1", Key: security.FromString("topsecret")}
	out := fmt.Sprintf("%v %s %+v", id, id, id)
	if strings.Contains(out, "topsecret") {
		t.Fatalf("key leaked: %s", out)
	}
	if !strings.Contains(out, "W1") {
		t.Fatalf("expected name in output: %s", out)
	}
	if (WalletIdentity{}).String() != "<unset>" {
		t.Fatalf("unexpected rendering of empty identity")
	}
}
