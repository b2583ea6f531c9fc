package auth

import (
	"context"
	"time"
)

// SignUpMetadata is attached to a newly created principal.
type SignUpMetadata struct {
	MemberNumber string
}

// SessionEventKind classifies session-lifecycle notifications.
type SessionEventKind string

const (
	EventSignedIn  SessionEventKind = "signed_in"
	EventSignedOut SessionEventKind = "signed_out"
)

// SessionEvent is delivered to Subscribe callers on every session
// transition. Session carries the affected session; for signed-out events
// the token may already be dead.
type SessionEvent struct {
	Kind    SessionEventKind
	Session Session
	At      time.Time
}

// Provider is the identity collaborator the auth core is written against.
// The production implementation lives in internal/identity; tests use
// in-memory fakes.
type Provider interface {
	// SignIn exchanges credentials for a session. Wrong credentials fail
	// with ErrInvalidCredentials; everything else is a backend failure.
	SignIn(ctx context.Context, loginID, secret string) (Session, error)

	// SignUp creates a principal. A duplicate login handle fails with
	// ErrLoginTaken.
	SignUp(ctx context.Context, loginID, secret string, meta SignUpMetadata) (Principal, error)

	// SignOut revokes a session.
	SignOut(ctx context.Context, token string) error

	// CurrentSession resolves a token to its active session. A missing or
	// expired token returns ok=false with a nil error.
	CurrentSession(ctx context.Context, token string) (Session, bool, error)

	// Subscribe returns a channel of session-lifecycle events and a release
	// function. The channel is closed after release.
	Subscribe() (<-chan SessionEvent, func())

	// LookupRole returns the stored role for a principal. ok=false means no
	// authority row exists.
	LookupRole(ctx context.Context, principalID string) (string, bool, error)

	// VerifyPassword checks a secret without creating a session. Wrong
	// secrets fail with ErrInvalidCredentials.
	VerifyPassword(ctx context.Context, loginID, secret string) error

	// RotatePassword replaces a principal's secret, clears any pending
	// first-login reset requirement and revokes all sessions except the one
	// identified by keepToken (empty keeps none).
	RotatePassword(ctx context.Context, loginID, newSecret, keepToken string) error
}
