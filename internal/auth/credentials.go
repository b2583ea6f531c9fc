package auth

// DefaultLoginDomain is the synthetic domain suffix appended to member
// numbers to form a login handle.
const DefaultLoginDomain = "members.local"

// Credentials is the synthetic login identity derived from a member number.
// Members never choose an initial password: the member number itself is the
// bootstrap secret, rotated through the password change flow.
type Credentials struct {
	LoginID string
	Secret  string
}

// DeriveCredentials maps a member number to its login identity. The login
// handle is lowercased; the secret keeps the original case.
func DeriveCredentials(memberNumber, domain string) Credentials {
	if domain == "" {
		domain = DefaultLoginDomain
	}
	return Credentials{
		LoginID: NormalizeMemberNumber(memberNumber) + "@" + domain,
		Secret:  memberNumber,
	}
}
