// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package events provides a small in-process publish/subscribe bus used to
// broadcast wallet lifecycle events such as readiness.
package events

import "sync"

// Event identifies something that happened. Events carry no payload.
type Event string

// WalletReady is published once the wallet runtime finished initializing.
const WalletReady Event = "sdk.ready"

// Bus fans published events out to every current subscriber. Publish never
// blocks: each subscription has a buffered channel and events that do not fit
// are counted as dropped for that subscriber.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	dropped int
	buffer  int
}

// NewBus returns a Bus whose subscriptions buffer up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{subs: make(map[int]chan Event), buffer: buffer}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were discarded because a subscriber
// buffer was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
