package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Member is a membership record. Created by administrative import; the
// auth_user_id link is written once by the session reconciler and never
// cleared.
type Member struct {
	ID              int64
	MemberNumber    string
	FullName        string
	Email           string
	Address         string
	Status          string
	CollectorNumber string
	AuthUserID      pgtype.Text
	CreatedAt       time.Time
}

// AuthUser is an identity-provider principal.
type AuthUser struct {
	ID                    string
	LoginID               string
	PasswordHash          string
	MemberNumber          string
	PasswordResetRequired bool
	IsActive              bool
	CreatedAt             time.Time
	LastLoginAt           pgtype.Timestamptz
	LastLoginIP           string
}

// AuthSession is an active identity session row.
type AuthSession struct {
	Token      string
	AuthUserID string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// AuthSessionUserRow joins a session with its principal.
type AuthSessionUserRow struct {
	Session AuthSession
	User    AuthUser
}

// ExpiredSessionRow identifies a session removed by the sweeper.
type ExpiredSessionRow struct {
	Token      string
	AuthUserID string
}
