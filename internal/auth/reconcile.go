package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/memberdesk/memberdesk/internal/metrics"
)

// MemberRecord is the reconciler's view of a persisted member row.
type MemberRecord struct {
	MemberNumber string
	FullName     string
	AuthUserID   string // empty until the first identity creation
}

// MemberDirectory is the member-record store the reconciler consults.
// GetMemberByNumber fails with ErrMemberNotFound when no row matches.
type MemberDirectory interface {
	GetMemberByNumber(ctx context.Context, memberNumber string) (MemberRecord, error)
	UpdateMemberAuthLink(ctx context.Context, memberNumber, principalID string) error
}

// Reconciler turns a bare member number into an authenticated session,
// creating the backing identity on first use and linking it to the member
// record.
type Reconciler struct {
	Members     MemberDirectory
	Provider    Provider
	LoginDomain string
	Logger      *slog.Logger
}

// EnsureSession looks up the member, derives the synthetic credentials and
// signs in, creating the identity first when it does not exist yet. The
// sign-in / create / re-sign-in sequence is strictly sequential; per call
// there is at most one identity creation and one link mutation, and both
// are skipped when the plain sign-in already succeeds.
func (r *Reconciler) EnsureSession(ctx context.Context, memberNumber string) (Session, error) {
	number := NormalizeMemberNumber(memberNumber)
	if number == "" {
		return Session{}, ErrMemberNotFound
	}

	member, err := r.Members.GetMemberByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("member_not_found").Inc()
			return Session{}, ErrMemberNotFound
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return Session{}, err
	}

	// Credentials derive from the directory's canonical number, so the
	// case a member types at the login form never changes the identity.
	creds := DeriveCredentials(member.MemberNumber, r.LoginDomain)

	sess, err := r.Provider.SignIn(ctx, creds.LoginID, creds.Secret)
	if err == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
		return sess, nil
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return Session{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	// Invalid credentials for a known member means the identity does not
	// exist yet. Create it, then sign in again.
	principal, err := r.Provider.SignUp(ctx, creds.LoginID, creds.Secret, SignUpMetadata{
		MemberNumber: member.MemberNumber,
	})
	switch {
	case err == nil:
		metrics.PrincipalSignupsTotal.Inc()
		if err := r.Members.UpdateMemberAuthLink(ctx, member.MemberNumber, principal.ID); err != nil {
			// Login proceeds with an unlinked record; the next attempt
			// short-circuits at plain sign-in anyway.
			metrics.LinkUpdateFailuresTotal.Inc()
			r.logger().Warn("member auth link update failed",
				"member_number", member.MemberNumber,
				"principal_id", principal.ID,
				"error", err,
			)
		}
	case errors.Is(err, ErrLoginTaken):
		// Lost a concurrent first-login race. The identity exists now, so
		// fall through to the plain sign-in below.
	default:
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return Session{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	sess, err = r.Provider.SignIn(ctx, creds.LoginID, creds.Secret)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return Session{}, fmt.Errorf("%w: %v", ErrPostSignupSignInFailed, err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return sess, nil
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
