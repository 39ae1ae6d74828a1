// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package events

import "testing"

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	b := NewBus(1)
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(WalletReady)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev != WalletReady {
				t.Fatalf("subscriber %d got %q", i, ev)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := NewBus(1)
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	b.Publish(WalletReady)
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
}

func TestBus_FullBufferDoesNotBlock(t *testing.T) {
	b := NewBus(1)
	_, cancel := b.Subscribe()
	defer cancel()

	b.Publish(WalletReady)
	b.Publish(WalletReady)
	if got := b.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped delivery, got %d", got)
	}
}
