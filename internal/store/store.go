// Package store is the hand-written query layer over Postgres.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const getMemberByNumber = `
SELECT id, member_number, full_name, email, address, status, collector_number, auth_user_id, created_at
FROM members
WHERE member_number = lower($1)
`

func (q *Queries) GetMemberByNumber(ctx context.Context, memberNumber string) (Member, error) {
	row := q.db.QueryRow(ctx, getMemberByNumber, memberNumber)
	var m Member
	err := row.Scan(&m.ID, &m.MemberNumber, &m.FullName, &m.Email, &m.Address, &m.Status, &m.CollectorNumber, &m.AuthUserID, &m.CreatedAt)
	return m, err
}

const updateMemberAuthLink = `
UPDATE members
SET auth_user_id = $2
WHERE member_number = lower($1) AND auth_user_id IS NULL
`

// UpdateMemberAuthLink writes the identity link once. A member that is
// already linked is left untouched.
func (q *Queries) UpdateMemberAuthLink(ctx context.Context, memberNumber, authUserID string) error {
	_, err := q.db.Exec(ctx, updateMemberAuthLink, memberNumber, authUserID)
	return err
}

const listMembers = `
SELECT id, member_number, full_name, email, address, status, collector_number, auth_user_id, created_at
FROM members
ORDER BY member_number
`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.Query(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.MemberNumber, &m.FullName, &m.Email, &m.Address, &m.Status, &m.CollectorNumber, &m.AuthUserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const listCollectors = `
SELECT m.id, m.member_number, m.full_name, m.email, m.address, m.status, m.collector_number, m.auth_user_id, m.created_at
FROM members m
JOIN member_roles r ON r.auth_user_id = m.auth_user_id
WHERE r.role = 'collector'
ORDER BY m.member_number
`

func (q *Queries) ListCollectors(ctx context.Context) ([]Member, error) {
	rows, err := q.db.Query(ctx, listCollectors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.MemberNumber, &m.FullName, &m.Email, &m.Address, &m.Status, &m.CollectorNumber, &m.AuthUserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const countMembers = `
SELECT count(*) FROM members
`

func (q *Queries) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countMembers).Scan(&n)
	return n, err
}

type CreateMemberParams struct {
	MemberNumber    string
	FullName        string
	Email           string
	Address         string
	Status          string
	CollectorNumber string
}

const createMember = `
INSERT INTO members (member_number, full_name, email, address, status, collector_number)
VALUES (lower($1), $2, $3, $4, $5, $6)
RETURNING id, member_number, full_name, email, address, status, collector_number, auth_user_id, created_at
`

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRow(ctx, createMember, arg.MemberNumber, arg.FullName, arg.Email, arg.Address, arg.Status, arg.CollectorNumber)
	var m Member
	err := row.Scan(&m.ID, &m.MemberNumber, &m.FullName, &m.Email, &m.Address, &m.Status, &m.CollectorNumber, &m.AuthUserID, &m.CreatedAt)
	return m, err
}

type CreateAuthUserParams struct {
	ID                    string
	LoginID               string
	PasswordHash          string
	MemberNumber          string
	PasswordResetRequired bool
}

const createAuthUser = `
INSERT INTO auth_users (id, login_id, password_hash, member_number, password_reset_required, is_active)
VALUES ($1, lower($2), $3, $4, $5, TRUE)
RETURNING id, login_id, password_hash, member_number, password_reset_required, is_active, created_at, last_login_at, last_login_ip
`

func (q *Queries) CreateAuthUser(ctx context.Context, arg CreateAuthUserParams) (AuthUser, error) {
	row := q.db.QueryRow(ctx, createAuthUser, arg.ID, arg.LoginID, arg.PasswordHash, arg.MemberNumber, arg.PasswordResetRequired)
	return scanAuthUser(row)
}

const getAuthUserByLogin = `
SELECT id, login_id, password_hash, member_number, password_reset_required, is_active, created_at, last_login_at, last_login_ip
FROM auth_users
WHERE login_id = lower($1)
`

func (q *Queries) GetAuthUserByLogin(ctx context.Context, loginID string) (AuthUser, error) {
	return scanAuthUser(q.db.QueryRow(ctx, getAuthUserByLogin, loginID))
}

const getAuthUser = `
SELECT id, login_id, password_hash, member_number, password_reset_required, is_active, created_at, last_login_at, last_login_ip
FROM auth_users
WHERE id = $1
`

func (q *Queries) GetAuthUser(ctx context.Context, id string) (AuthUser, error) {
	return scanAuthUser(q.db.QueryRow(ctx, getAuthUser, id))
}

type UpdateAuthUserPasswordParams struct {
	LoginID               string
	PasswordHash          string
	PasswordResetRequired bool
}

const updateAuthUserPassword = `
UPDATE auth_users
SET password_hash = $2, password_reset_required = $3
WHERE login_id = lower($1)
`

func (q *Queries) UpdateAuthUserPassword(ctx context.Context, arg UpdateAuthUserPasswordParams) error {
	tag, err := q.db.Exec(ctx, updateAuthUserPassword, arg.LoginID, arg.PasswordHash, arg.PasswordResetRequired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type UpdateAuthUserLoginMetaParams struct {
	ID          string
	LastLoginAt pgtype.Timestamptz
	LastLoginIP string
}

const updateAuthUserLoginMeta = `
UPDATE auth_users
SET last_login_at = $2, last_login_ip = $3
WHERE id = $1
`

func (q *Queries) UpdateAuthUserLoginMeta(ctx context.Context, arg UpdateAuthUserLoginMetaParams) error {
	_, err := q.db.Exec(ctx, updateAuthUserLoginMeta, arg.ID, arg.LastLoginAt, arg.LastLoginIP)
	return err
}

type CreateAuthSessionParams struct {
	Token      string
	AuthUserID string
	ExpiresAt  time.Time
}

const createAuthSession = `
INSERT INTO auth_sessions (token, auth_user_id, expires_at)
VALUES ($1, $2, $3)
`

func (q *Queries) CreateAuthSession(ctx context.Context, arg CreateAuthSessionParams) error {
	_, err := q.db.Exec(ctx, createAuthSession, arg.Token, arg.AuthUserID, arg.ExpiresAt)
	return err
}

const getAuthSessionUser = `
SELECT s.token, s.auth_user_id, s.created_at, s.expires_at,
       u.id, u.login_id, u.password_hash, u.member_number, u.password_reset_required, u.is_active, u.created_at, u.last_login_at, u.last_login_ip
FROM auth_sessions s
JOIN auth_users u ON u.id = s.auth_user_id
WHERE s.token = $1
`

func (q *Queries) GetAuthSessionUser(ctx context.Context, token string) (AuthSessionUserRow, error) {
	row := q.db.QueryRow(ctx, getAuthSessionUser, token)
	var out AuthSessionUserRow
	err := row.Scan(
		&out.Session.Token, &out.Session.AuthUserID, &out.Session.CreatedAt, &out.Session.ExpiresAt,
		&out.User.ID, &out.User.LoginID, &out.User.PasswordHash, &out.User.MemberNumber, &out.User.PasswordResetRequired,
		&out.User.IsActive, &out.User.CreatedAt, &out.User.LastLoginAt, &out.User.LastLoginIP,
	)
	return out, err
}

const deleteAuthSession = `
DELETE FROM auth_sessions WHERE token = $1
`

func (q *Queries) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, deleteAuthSession, token)
	return err
}

type DeleteAuthSessionsForUserParams struct {
	AuthUserID string
	KeepToken  string
}

const deleteAuthSessionsForUser = `
DELETE FROM auth_sessions
WHERE auth_user_id = $1 AND token <> $2
RETURNING token, auth_user_id
`

// DeleteAuthSessionsForUser revokes every session of a principal except
// KeepToken. An empty KeepToken revokes them all.
func (q *Queries) DeleteAuthSessionsForUser(ctx context.Context, arg DeleteAuthSessionsForUserParams) ([]ExpiredSessionRow, error) {
	rows, err := q.db.Query(ctx, deleteAuthSessionsForUser, arg.AuthUserID, arg.KeepToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExpiredSessionRow
	for rows.Next() {
		var r ExpiredSessionRow
		if err := rows.Scan(&r.Token, &r.AuthUserID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const deleteExpiredAuthSessions = `
DELETE FROM auth_sessions
WHERE expires_at <= $1
RETURNING token, auth_user_id
`

func (q *Queries) DeleteExpiredAuthSessions(ctx context.Context, now time.Time) ([]ExpiredSessionRow, error) {
	rows, err := q.db.Query(ctx, deleteExpiredAuthSessions, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExpiredSessionRow
	for rows.Next() {
		var r ExpiredSessionRow
		if err := rows.Scan(&r.Token, &r.AuthUserID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getMemberRole = `
SELECT role FROM member_roles WHERE auth_user_id = $1
`

func (q *Queries) GetMemberRole(ctx context.Context, authUserID string) (string, error) {
	var role string
	err := q.db.QueryRow(ctx, getMemberRole, authUserID).Scan(&role)
	return role, err
}

type UpsertMemberRoleParams struct {
	AuthUserID string
	Role       string
}

const upsertMemberRole = `
INSERT INTO member_roles (auth_user_id, role)
VALUES ($1, $2)
ON CONFLICT (auth_user_id) DO UPDATE SET role = EXCLUDED.role
`

func (q *Queries) UpsertMemberRole(ctx context.Context, arg UpsertMemberRoleParams) error {
	_, err := q.db.Exec(ctx, upsertMemberRole, arg.AuthUserID, arg.Role)
	return err
}

type InsertPasswordResetAuditParams struct {
	MemberNumber string
	RequestIP    string
	UserAgent    string
	Locale       string
	CreatedAt    time.Time
}

const insertPasswordResetAudit = `
INSERT INTO password_reset_audit (member_number, request_ip, user_agent, locale, created_at)
VALUES (lower($1), $2, $3, $4, $5)
`

func (q *Queries) InsertPasswordResetAudit(ctx context.Context, arg InsertPasswordResetAuditParams) error {
	_, err := q.db.Exec(ctx, insertPasswordResetAudit, arg.MemberNumber, arg.RequestIP, arg.UserAgent, arg.Locale, arg.CreatedAt)
	return err
}

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var u AuthUser
	err := row.Scan(&u.ID, &u.LoginID, &u.PasswordHash, &u.MemberNumber, &u.PasswordResetRequired, &u.IsActive, &u.CreatedAt, &u.LastLoginAt, &u.LastLoginIP)
	return u, err
}
