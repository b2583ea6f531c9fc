package handlers

import (
	"context"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/store"
)

func newTestContext(method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	r := httptest.NewRequest(method, target, nil)
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(r, rec)
	return c, rec
}

func withSessionContext(t *testing.T, c echo.Context, sessions *scs.SessionManager) {
	t.Helper()

	sessionCtx, err := sessions.Load(c.Request().Context(), "")
	if err != nil {
		t.Fatalf("sessions.Load() error = %v", err)
	}
	c.SetRequest(c.Request().WithContext(sessionCtx))
}

// stubProvider is a minimal in-memory identity backend for handler tests.
type stubProvider struct {
	secrets    map[string]string         // loginID -> secret
	principals map[string]auth.Principal // loginID -> principal
	sessions   map[string]auth.Session   // token -> session
	nextToken  int

	signOuts []string
	rotated  []string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		secrets:    map[string]string{},
		principals: map[string]auth.Principal{},
		sessions:   map[string]auth.Session{},
	}
}

func (p *stubProvider) addUser(memberNumber, domain string) auth.Principal {
	creds := auth.DeriveCredentials(memberNumber, domain)
	principal := auth.Principal{
		ID:           "user-" + auth.NormalizeMemberNumber(memberNumber),
		LoginID:      creds.LoginID,
		MemberNumber: auth.NormalizeMemberNumber(memberNumber),
	}
	p.secrets[creds.LoginID] = creds.Secret
	p.principals[creds.LoginID] = principal
	return principal
}

func (p *stubProvider) SignIn(_ context.Context, loginID, secret string) (auth.Session, error) {
	stored, ok := p.secrets[loginID]
	if !ok || stored != secret {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	p.nextToken++
	sess := auth.Session{
		Token:     fmt.Sprintf("token-%d", p.nextToken),
		Principal: p.principals[loginID],
	}
	p.sessions[sess.Token] = sess
	return sess, nil
}

func (p *stubProvider) SignUp(_ context.Context, loginID, secret string, meta auth.SignUpMetadata) (auth.Principal, error) {
	if _, ok := p.secrets[loginID]; ok {
		return auth.Principal{}, auth.ErrLoginTaken
	}
	principal := auth.Principal{
		ID:                    "user-" + meta.MemberNumber,
		LoginID:               loginID,
		MemberNumber:          meta.MemberNumber,
		PasswordResetRequired: true,
	}
	p.secrets[loginID] = secret
	p.principals[loginID] = principal
	return principal, nil
}

func (p *stubProvider) SignOut(_ context.Context, token string) error {
	p.signOuts = append(p.signOuts, token)
	delete(p.sessions, token)
	return nil
}

func (p *stubProvider) CurrentSession(_ context.Context, token string) (auth.Session, bool, error) {
	sess, ok := p.sessions[token]
	return sess, ok, nil
}

func (p *stubProvider) Subscribe() (<-chan auth.SessionEvent, func()) {
	ch := make(chan auth.SessionEvent)
	return ch, func() { close(ch) }
}

func (p *stubProvider) LookupRole(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (p *stubProvider) VerifyPassword(_ context.Context, loginID, secret string) error {
	if p.secrets[loginID] != secret {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func (p *stubProvider) RotatePassword(_ context.Context, loginID, newSecret, keepToken string) error {
	if _, ok := p.secrets[loginID]; !ok {
		return pgx.ErrNoRows
	}
	p.secrets[loginID] = newSecret
	p.rotated = append(p.rotated, loginID)
	for token := range p.sessions {
		if token != keepToken {
			delete(p.sessions, token)
		}
	}
	return nil
}

// stubDirectory backs the reconciler without a database.
type stubDirectory struct {
	members map[string]auth.MemberRecord
	linked  map[string]string
}

func (d *stubDirectory) GetMemberByNumber(_ context.Context, memberNumber string) (auth.MemberRecord, error) {
	m, ok := d.members[auth.NormalizeMemberNumber(memberNumber)]
	if !ok {
		return auth.MemberRecord{}, auth.ErrMemberNotFound
	}
	return m, nil
}

func (d *stubDirectory) UpdateMemberAuthLink(_ context.Context, memberNumber, principalID string) error {
	if d.linked == nil {
		d.linked = map[string]string{}
	}
	d.linked[auth.NormalizeMemberNumber(memberNumber)] = principalID
	return nil
}

// stubDB satisfies store.DBTX for handlers that touch Queries directly.
// Exec succeeds, reads come back empty.
type stubDB struct {
	execs int
}

func (db *stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	db.execs++
	return pgconn.CommandTag{}, nil
}

func (db *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (db *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{pgx.ErrNoRows}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func newTestHandlers(provider auth.Provider, dir auth.MemberDirectory) (*Handlers, *stubDB) {
	db := &stubDB{}
	sessions := scs.New()
	return &Handlers{
		Q:        store.New(db),
		Sessions: sessions,
		Provider: provider,
		Reconciler: &auth.Reconciler{
			Members:     dir,
			Provider:    provider,
			LoginDomain: auth.DefaultLoginDomain,
		},
		Changer: &auth.PasswordChanger{
			Provider:    provider,
			LoginDomain: auth.DefaultLoginDomain,
		},
		Roles: auth.NewResolver(provider, auth.DefaultRoleCacheTTL),
	}, db
}
