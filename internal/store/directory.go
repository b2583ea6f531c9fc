package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/memberdesk/memberdesk/internal/auth"
)

// MemberDirectory adapts Queries to the reconciler's member-store contract.
type MemberDirectory struct {
	Q *Queries
}

func (d MemberDirectory) GetMemberByNumber(ctx context.Context, memberNumber string) (auth.MemberRecord, error) {
	m, err := d.Q.GetMemberByNumber(ctx, memberNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.MemberRecord{}, auth.ErrMemberNotFound
		}
		return auth.MemberRecord{}, err
	}
	return auth.MemberRecord{
		MemberNumber: m.MemberNumber,
		FullName:     m.FullName,
		AuthUserID:   m.AuthUserID.String,
	}, nil
}

func (d MemberDirectory) UpdateMemberAuthLink(ctx context.Context, memberNumber, principalID string) error {
	return d.Q.UpdateMemberAuthLink(ctx, memberNumber, principalID)
}

// PasswordAudit adapts Queries to the password changer's audit contract.
type PasswordAudit struct {
	Q *Queries
}

func (a PasswordAudit) InsertPasswordResetAudit(ctx context.Context, audit auth.PasswordResetAudit) error {
	return a.Q.InsertPasswordResetAudit(ctx, InsertPasswordResetAuditParams{
		MemberNumber: audit.MemberNumber,
		RequestIP:    audit.RequestIP,
		UserAgent:    audit.UserAgent,
		Locale:       audit.Locale,
		CreatedAt:    audit.CreatedAt,
	})
}
