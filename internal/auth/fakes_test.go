package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeUser struct {
	id            string
	secret        string
	memberNumber  string
	resetRequired bool
}

// fakeProvider is an in-memory Provider with call counters and error
// injection points.
type fakeProvider struct {
	mu       sync.Mutex
	users    map[string]*fakeUser // keyed by login id
	nextID   int
	nextTok  int
	sessions map[string]Session

	subs []chan SessionEvent

	signInCalls int
	signUpCalls int
	verifyCalls int
	rotateCalls int

	failSignIn     error // every SignIn fails with this
	failNextSignIn error // only the next SignIn fails with this
	failSignUp     error
	failVerify     error
	failRotate     error
	failLookup     error

	roles map[string]string // principal id -> role
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:    make(map[string]*fakeUser),
		sessions: make(map[string]Session),
		roles:    make(map[string]string),
	}
}

func (f *fakeProvider) addUser(loginID, secret, memberNumber string) *fakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := &fakeUser{
		id:           fmt.Sprintf("principal-%d", f.nextID),
		secret:       secret,
		memberNumber: memberNumber,
	}
	f.users[loginID] = u
	return u
}

func (f *fakeProvider) SignIn(ctx context.Context, loginID, secret string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signInCalls++
	if f.failSignIn != nil {
		return Session{}, f.failSignIn
	}
	if f.failNextSignIn != nil {
		err := f.failNextSignIn
		f.failNextSignIn = nil
		return Session{}, err
	}

	u, ok := f.users[loginID]
	if !ok || u.secret != secret {
		return Session{}, ErrInvalidCredentials
	}

	f.nextTok++
	sess := Session{
		Token: fmt.Sprintf("token-%d", f.nextTok),
		Principal: Principal{
			ID:                    u.id,
			LoginID:               loginID,
			MemberNumber:          u.memberNumber,
			PasswordResetRequired: u.resetRequired,
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.sessions[sess.Token] = sess
	return sess, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, loginID, secret string, meta SignUpMetadata) (Principal, error) {
	f.mu.Lock()

	f.signUpCalls++
	if f.failSignUp != nil {
		err := f.failSignUp
		f.mu.Unlock()
		return Principal{}, err
	}
	if _, exists := f.users[loginID]; exists {
		f.mu.Unlock()
		return Principal{}, ErrLoginTaken
	}
	f.mu.Unlock()

	u := f.addUser(loginID, secret, meta.MemberNumber)
	u.resetRequired = true
	return Principal{
		ID:                    u.id,
		LoginID:               loginID,
		MemberNumber:          u.memberNumber,
		PasswordResetRequired: true,
	}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	sess, ok := f.sessions[token]
	delete(f.sessions, token)
	f.mu.Unlock()
	if ok {
		f.emit(SessionEvent{Kind: EventSignedOut, Session: sess, At: time.Now()})
	}
	return nil
}

func (f *fakeProvider) CurrentSession(ctx context.Context, token string) (Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[token]
	return sess, ok, nil
}

func (f *fakeProvider) Subscribe() (<-chan SessionEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan SessionEvent, 16)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeProvider) emit(ev SessionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- ev
	}
}

func (f *fakeProvider) LookupRole(ctx context.Context, principalID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookup != nil {
		return "", false, f.failLookup
	}
	role, ok := f.roles[principalID]
	return role, ok, nil
}

func (f *fakeProvider) VerifyPassword(ctx context.Context, loginID, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.failVerify != nil {
		return f.failVerify
	}
	u, ok := f.users[loginID]
	if !ok || u.secret != secret {
		return ErrInvalidCredentials
	}
	return nil
}

func (f *fakeProvider) RotatePassword(ctx context.Context, loginID, newSecret, keepToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rotateCalls++
	if f.failRotate != nil {
		return f.failRotate
	}
	u, ok := f.users[loginID]
	if !ok {
		return ErrInvalidCredentials
	}
	u.secret = newSecret
	u.resetRequired = false
	for token := range f.sessions {
		if token != keepToken {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeProvider) backendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls + f.signUpCalls + f.verifyCalls + f.rotateCalls
}

// fakeDirectory is an in-memory member store with write counters.
type fakeDirectory struct {
	mu          sync.Mutex
	members     map[string]MemberRecord
	linkUpdates int
	failLink    error
	failLookup  error
}

func newFakeDirectory(numbers ...string) *fakeDirectory {
	d := &fakeDirectory{members: make(map[string]MemberRecord)}
	for _, n := range numbers {
		d.members[NormalizeMemberNumber(n)] = MemberRecord{MemberNumber: NormalizeMemberNumber(n)}
	}
	return d
}

func (d *fakeDirectory) GetMemberByNumber(ctx context.Context, memberNumber string) (MemberRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLookup != nil {
		return MemberRecord{}, d.failLookup
	}
	m, ok := d.members[NormalizeMemberNumber(memberNumber)]
	if !ok {
		return MemberRecord{}, ErrMemberNotFound
	}
	return m, nil
}

func (d *fakeDirectory) UpdateMemberAuthLink(ctx context.Context, memberNumber, principalID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLink != nil {
		return d.failLink
	}
	m := d.members[NormalizeMemberNumber(memberNumber)]
	if m.AuthUserID == "" {
		m.AuthUserID = principalID
		d.members[NormalizeMemberNumber(memberNumber)] = m
		d.linkUpdates++
	}
	return nil
}

// fakeAudit records rotation audits.
type fakeAudit struct {
	mu      sync.Mutex
	records []PasswordResetAudit
	fail    error
}

func (a *fakeAudit) InsertPasswordResetAudit(ctx context.Context, audit PasswordResetAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.records = append(a.records, audit)
	return nil
}
