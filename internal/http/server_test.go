package httpapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/handlers"
)

// nullProvider knows no sessions and no users.
type nullProvider struct{}

func (nullProvider) SignIn(context.Context, string, string) (auth.Session, error) {
	return auth.Session{}, auth.ErrInvalidCredentials
}

func (nullProvider) SignUp(context.Context, string, string, auth.SignUpMetadata) (auth.Principal, error) {
	return auth.Principal{}, auth.ErrLoginTaken
}

func (nullProvider) SignOut(context.Context, string) error { return nil }

func (nullProvider) CurrentSession(context.Context, string) (auth.Session, bool, error) {
	return auth.Session{}, false, nil
}

func (nullProvider) Subscribe() (<-chan auth.SessionEvent, func()) {
	ch := make(chan auth.SessionEvent)
	return ch, func() { close(ch) }
}

func (nullProvider) LookupRole(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (nullProvider) VerifyPassword(context.Context, string, string) error {
	return auth.ErrInvalidCredentials
}

func (nullProvider) RotatePassword(context.Context, string, string, string) error { return nil }

func newTestServer(t *testing.T) *EchoServer {
	t.Helper()

	provider := nullProvider{}
	h := &handlers.Handlers{
		Sessions: scs.New(),
		Provider: provider,
		Roles:    auth.NewResolver(provider, auth.DefaultRoleCacheTTL),
	}
	srv, err := NewEchoServer(h)
	if err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}
	return srv
}

func TestAnonymousDashboardRedirectsToLogin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); !strings.HasPrefix(got, "/login") {
		t.Fatalf("Location = %q, want /login prefix", got)
	}
}

func TestAnonymousProtectedSectionsRedirect(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/members", "/collectors", "/password", "/events/session"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com"+path, nil)
		rec := httptest.NewRecorder()
		srv.e.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: status = %d, want %d", path, rec.Code, http.StatusSeeOther)
		}
		if got := rec.Header().Get("Location"); !strings.HasPrefix(got, "/login") {
			t.Fatalf("%s: Location = %q, want /login prefix", path, got)
		}
	}
}

func TestLoginPageServesAnonymous(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/login", nil)
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Member Number") {
		t.Fatalf("body missing login form: %q", rec.Body.String())
	}
}

func TestLoginPostWithoutCSRFTokenRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "http://example.com/login", strings.NewReader("member_number=a0042"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want CSRF rejection", rec.Code)
	}
}

func TestHealthzBypassesAuth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/healthz", nil)
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
