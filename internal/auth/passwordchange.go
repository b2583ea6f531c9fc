package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/memberdesk/memberdesk/internal/metrics"
)

// MinPasswordLength is the lower bound enforced before any backend call.
const MinPasswordLength = 8

// ClientMetadata is request provenance recorded with every credential
// rotation for audit purposes.
type ClientMetadata struct {
	Platform string // client platform, normally the User-Agent
	Locale   string
	RemoteIP string
	At       time.Time
}

// PasswordResetAudit is the persisted audit record for a rotation.
type PasswordResetAudit struct {
	MemberNumber string
	RequestIP    string
	UserAgent    string
	Locale       string
	CreatedAt    time.Time
}

// PasswordAuditStore persists rotation audit records.
type PasswordAuditStore interface {
	InsertPasswordResetAudit(ctx context.Context, audit PasswordResetAudit) error
}

// ChangePasswordRequest carries one credential-rotation attempt.
// FirstTimeReset marks the mandatory reset after a bootstrap login; in that
// mode the current password is omitted entirely.
type ChangePasswordRequest struct {
	MemberNumber    string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	FirstTimeReset  bool

	// KeepToken is the caller's own session token, spared from the
	// revocation that rotation performs. Empty revokes everything.
	KeepToken string

	Client ClientMetadata
}

// Validate applies the local rules. A non-nil result means the request
// never reaches the backend.
func (req *ChangePasswordRequest) Validate() *ValidationError {
	if len(req.NewPassword) < MinPasswordLength {
		return &ValidationError{Field: "new_password", Message: "Password must be at least 8 characters."}
	}
	if req.ConfirmPassword != req.NewPassword {
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match."}
	}
	if !req.FirstTimeReset && strings.TrimSpace(req.CurrentPassword) == "" {
		return &ValidationError{Field: "current_password", Message: "Current password is required."}
	}
	return nil
}

// PasswordChanger validates and submits credential rotations.
type PasswordChanger struct {
	Provider    Provider
	Audit       PasswordAuditStore
	LoginDomain string
	Logger      *slog.Logger
}

// Change rotates a member's password. Validation failures return a
// *ValidationError before any provider call; a wrong current password is
// reported the same way so the dialog can surface it inline. On success
// every other session of the principal is revoked.
func (pc *PasswordChanger) Change(ctx context.Context, req ChangePasswordRequest) error {
	if verr := req.Validate(); verr != nil {
		return verr
	}

	creds := DeriveCredentials(req.MemberNumber, pc.LoginDomain)

	if !req.FirstTimeReset {
		if err := pc.Provider.VerifyPassword(ctx, creds.LoginID, req.CurrentPassword); err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				return &ValidationError{Field: "current_password", Message: "Current password is incorrect."}
			}
			return err
		}
	}

	if err := pc.Provider.RotatePassword(ctx, creds.LoginID, req.NewPassword, req.KeepToken); err != nil {
		return err
	}

	mode := "change"
	if req.FirstTimeReset {
		mode = "first_login"
	}
	metrics.PasswordResetsTotal.WithLabelValues(mode).Inc()

	if pc.Audit != nil {
		at := req.Client.At
		if at.IsZero() {
			at = time.Now()
		}
		audit := PasswordResetAudit{
			MemberNumber: NormalizeMemberNumber(req.MemberNumber),
			RequestIP:    req.Client.RemoteIP,
			UserAgent:    req.Client.Platform,
			Locale:       req.Client.Locale,
			CreatedAt:    at,
		}
		if err := pc.Audit.InsertPasswordResetAudit(ctx, audit); err != nil {
			pc.logger().Warn("password reset audit insert failed",
				"member_number", audit.MemberNumber,
				"error", err,
			)
		}
	}

	return nil
}

func (pc *PasswordChanger) logger() *slog.Logger {
	if pc.Logger != nil {
		return pc.Logger
	}
	return slog.Default()
}
