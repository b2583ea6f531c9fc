package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMemberNotFound means no member record matches the entered number.
	// The reconciler never attempts identity creation in this case.
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidCredentials is the provider's "login handle or secret is
	// wrong" class. During reconciliation it is read as "identity does not
	// yet exist".
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginTaken is the provider's duplicate-handle rejection on sign-up.
	// The loser of a concurrent first login treats it as "already exists".
	ErrLoginTaken = errors.New("login id already registered")

	// ErrSignInFailed wraps sign-in failures that are not the
	// invalid-credentials class. Fatal to the login attempt.
	ErrSignInFailed = errors.New("sign-in failed")

	// ErrPostSignupSignInFailed marks a sign-in failure immediately after a
	// successful identity creation. There is no further fallback.
	ErrPostSignupSignInFailed = errors.New("sign-in after signup failed")

	// ErrLinkUpdateFailed marks a failure to persist the member record's
	// auth_user_id link. Non-fatal: retries find the identity on the next
	// sign-in attempt.
	ErrLinkUpdateFailed = errors.New("member auth link update failed")

	// ErrRoleFetch wraps authority-lookup failures. Surfaced to the caller
	// instead of being downgraded to "no role".
	ErrRoleFetch = errors.New("role lookup failed")
)

// ValidationError is a locally resolved input failure. It never reaches the
// backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
