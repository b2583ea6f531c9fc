package auth

import (
	"context"
	"sync"
)

// WatcherState is the session watcher's lifecycle state.
type WatcherState int

const (
	StateChecking WatcherState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s WatcherState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// SessionWatcher observes session-lifecycle events for one session token
// and invokes OnUnauthenticated exactly once when the session turns out to
// be absent or is revoked. Repeated "no session" notifications while
// already unauthenticated do not re-fire the callback.
type SessionWatcher struct {
	Provider Provider
	Token    string

	// OnUnauthenticated drives the redirect to the login entry point.
	OnUnauthenticated func()

	mu    sync.Mutex
	state WatcherState
	done  bool
}

// State reports the current lifecycle state.
func (w *SessionWatcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Run performs the initial session check and then consumes lifecycle
// events until ctx is canceled. The subscription is released on return,
// and any check or event that resolves after cancellation is a no-op.
func (w *SessionWatcher) Run(ctx context.Context) {
	events, release := w.Provider.Subscribe()
	defer release()
	defer w.teardown()

	_, ok, err := w.Provider.CurrentSession(ctx, w.Token)
	if ctx.Err() != nil {
		return
	}
	if err != nil || !ok {
		w.transition(StateUnauthenticated)
	} else {
		w.transition(StateAuthenticated)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if ctx.Err() != nil {
				return
			}
			if ev.Kind != EventSignedOut {
				continue
			}
			if ev.Session.Token != "" && ev.Session.Token != w.Token {
				continue
			}
			w.transition(StateUnauthenticated)
		}
	}
}

func (w *SessionWatcher) transition(next WatcherState) {
	w.mu.Lock()
	if w.done || w.state == next {
		w.mu.Unlock()
		return
	}
	w.state = next
	fire := next == StateUnauthenticated && w.OnUnauthenticated != nil
	w.mu.Unlock()

	if fire {
		w.OnUnauthenticated()
	}
}

func (w *SessionWatcher) teardown() {
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()
}
