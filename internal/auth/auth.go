// Package auth holds the member authentication domain: credential
// derivation, session reconciliation, role resolution and the access gate.
package auth

import (
	"strings"
	"time"
)

// Role is the coarse authorization level attached to a principal.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCollector Role = "collector"
	RoleMember    Role = "member"

	// RoleNone means unauthenticated or indeterminate. Never treated as a
	// privilege level.
	RoleNone Role = ""
)

// ParseRole maps a stored role string to a Role. Unknown strings resolve to
// RoleNone so that a misconfigured row can never widen access.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleCollector):
		return RoleCollector
	case string(RoleMember):
		return RoleMember
	default:
		return RoleNone
	}
}

// Section is a named protected area of the dashboard.
type Section string

const (
	SectionDashboard  Section = "dashboard"
	SectionUsers      Section = "users"
	SectionCollectors Section = "collectors"
)

// Principal is the identity-provider-side account for a logged-in subject.
type Principal struct {
	ID                    string
	LoginID               string
	MemberNumber          string
	PasswordResetRequired bool
}

// Session is the short-lived credential proving an active Principal.
type Session struct {
	Token     string
	Principal Principal
	ExpiresAt time.Time
}

// NormalizeMemberNumber canonicalizes a human-entered member number for use
// as a credential handle. Member numbers are case-insensitive.
func NormalizeMemberNumber(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
