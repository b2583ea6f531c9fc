package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/metrics"
	"github.com/memberdesk/memberdesk/internal/store"
)

const defaultSessionTTL = 12 * time.Hour

// LocalProvider is the Postgres-backed identity provider.
type LocalProvider struct {
	q          *store.Queries
	sessionTTL time.Duration
	events     *broadcaster
	now        func() time.Time
}

var _ auth.Provider = (*LocalProvider)(nil)

func NewLocalProvider(q *store.Queries, sessionTTL time.Duration) *LocalProvider {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &LocalProvider{
		q:          q,
		sessionTTL: sessionTTL,
		events:     newBroadcaster(),
		now:        time.Now,
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, loginID, secret string) (auth.Session, error) {
	user, err := p.q.GetAuthUserByLogin(ctx, loginID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrInvalidCredentials
		}
		return auth.Session{}, err
	}
	if !user.IsActive {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(secret, user.PasswordHash)
	if err != nil {
		return auth.Session{}, err
	}
	if !match {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	now := p.now()
	sess := auth.Session{
		Token:     uuid.NewString(),
		Principal: principalFor(user),
		ExpiresAt: now.Add(p.sessionTTL),
	}
	if err := p.q.CreateAuthSession(ctx, store.CreateAuthSessionParams{
		Token:      sess.Token,
		AuthUserID: user.ID,
		ExpiresAt:  sess.ExpiresAt,
	}); err != nil {
		return auth.Session{}, err
	}

	p.events.publish(auth.SessionEvent{Kind: auth.EventSignedIn, Session: sess, At: now})
	return sess, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, loginID, secret string, meta auth.SignUpMetadata) (auth.Principal, error) {
	hash, err := auth.HashPassword(secret)
	if err != nil {
		return auth.Principal{}, err
	}

	// Bootstrap secrets are the member number itself, so a mandatory reset
	// is pending from the start.
	user, err := p.q.CreateAuthUser(ctx, store.CreateAuthUserParams{
		ID:                    uuid.NewString(),
		LoginID:               loginID,
		PasswordHash:          hash,
		MemberNumber:          auth.NormalizeMemberNumber(meta.MemberNumber),
		PasswordResetRequired: true,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return auth.Principal{}, auth.ErrLoginTaken
		}
		return auth.Principal{}, err
	}

	return principalFor(user), nil
}

func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	row, err := p.q.GetAuthSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if err := p.q.DeleteAuthSession(ctx, token); err != nil {
		return err
	}

	metrics.SessionsRevokedTotal.WithLabelValues("signout").Inc()
	p.events.publish(auth.SessionEvent{
		Kind:    auth.EventSignedOut,
		Session: sessionFor(row),
		At:      p.now(),
	})
	return nil
}

func (p *LocalProvider) CurrentSession(ctx context.Context, token string) (auth.Session, bool, error) {
	if token == "" {
		return auth.Session{}, false, nil
	}

	row, err := p.q.GetAuthSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, false, nil
		}
		return auth.Session{}, false, err
	}

	now := p.now()
	if !row.Session.ExpiresAt.After(now) {
		if err := p.q.DeleteAuthSession(ctx, token); err != nil {
			return auth.Session{}, false, err
		}
		metrics.SessionsRevokedTotal.WithLabelValues("expired").Inc()
		p.events.publish(auth.SessionEvent{
			Kind:    auth.EventSignedOut,
			Session: sessionFor(row),
			At:      now,
		})
		return auth.Session{}, false, nil
	}

	return sessionFor(row), true, nil
}

func (p *LocalProvider) Subscribe() (<-chan auth.SessionEvent, func()) {
	return p.events.subscribe()
}

func (p *LocalProvider) LookupRole(ctx context.Context, principalID string) (string, bool, error) {
	role, err := p.q.GetMemberRole(ctx, principalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return role, true, nil
}

func (p *LocalProvider) VerifyPassword(ctx context.Context, loginID, secret string) error {
	user, err := p.q.GetAuthUserByLogin(ctx, loginID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrInvalidCredentials
		}
		return err
	}
	if !user.IsActive {
		return auth.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(secret, user.PasswordHash)
	if err != nil {
		return err
	}
	if !match {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func (p *LocalProvider) RotatePassword(ctx context.Context, loginID, newSecret, keepToken string) error {
	user, err := p.q.GetAuthUserByLogin(ctx, loginID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrInvalidCredentials
		}
		return err
	}

	hash, err := auth.HashPassword(newSecret)
	if err != nil {
		return err
	}
	if err := p.q.UpdateAuthUserPassword(ctx, store.UpdateAuthUserPasswordParams{
		LoginID:               loginID,
		PasswordHash:          hash,
		PasswordResetRequired: false,
	}); err != nil {
		return err
	}

	revoked, err := p.q.DeleteAuthSessionsForUser(ctx, store.DeleteAuthSessionsForUserParams{
		AuthUserID: user.ID,
		KeepToken:  keepToken,
	})
	if err != nil {
		return err
	}

	now := p.now()
	for _, r := range revoked {
		metrics.SessionsRevokedTotal.WithLabelValues("rotation").Inc()
		p.events.publish(auth.SessionEvent{
			Kind: auth.EventSignedOut,
			Session: auth.Session{
				Token:     r.Token,
				Principal: principalFor(user),
			},
			At: now,
		})
	}
	return nil
}

// SweepExpired removes expired sessions and publishes signed-out events for
// each, so watchers learn about expiry without polling.
func (p *LocalProvider) SweepExpired(ctx context.Context) (int, error) {
	expired, err := p.q.DeleteExpiredAuthSessions(ctx, p.now())
	if err != nil {
		return 0, err
	}
	now := p.now()
	for _, r := range expired {
		metrics.SessionsRevokedTotal.WithLabelValues("expired").Inc()
		p.events.publish(auth.SessionEvent{
			Kind: auth.EventSignedOut,
			Session: auth.Session{
				Token:     r.Token,
				Principal: auth.Principal{ID: r.AuthUserID},
			},
			At: now,
		})
	}
	return len(expired), nil
}

func principalFor(user store.AuthUser) auth.Principal {
	return auth.Principal{
		ID:                    user.ID,
		LoginID:               user.LoginID,
		MemberNumber:          user.MemberNumber,
		PasswordResetRequired: user.PasswordResetRequired,
	}
}

func sessionFor(row store.AuthSessionUserRow) auth.Session {
	return auth.Session{
		Token:     row.Session.Token,
		Principal: principalFor(row.User),
		ExpiresAt: row.Session.ExpiresAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
