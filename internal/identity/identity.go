// Package identity implements the identity-provider contract over
// Postgres: principals, password verification and session issuance, plus a
// broadcast stream of session-lifecycle events.
package identity

import (
	"sync"

	"github.com/memberdesk/memberdesk/internal/auth"
)

const subscriberBuffer = 16

// broadcaster fans session events out to subscribers. Slow subscribers
// drop events rather than block sign-in and sign-out paths.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan auth.SessionEvent
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan auth.SessionEvent)}
}

func (b *broadcaster) subscribe() (<-chan auth.SessionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan auth.SessionEvent, subscriberBuffer)
	b.subs[id] = ch

	release := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, release
}

func (b *broadcaster) publish(ev auth.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
