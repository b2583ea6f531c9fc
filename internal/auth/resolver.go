package auth

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/memberdesk/memberdesk/internal/metrics"
)

// DefaultRoleCacheTTL bounds repeated authority lookups per principal.
const DefaultRoleCacheTTL = 5 * time.Minute

// RoleSource is the single canonical authority consulted for roles.
type RoleSource interface {
	LookupRole(ctx context.Context, principalID string) (string, bool, error)
}

// Resolver derives a principal's role from the authority source, caching
// results per principal. The cache is written only by the resolver itself
// and invalidated on sign-out.
type Resolver struct {
	source RoleSource
	cache  *gocache.Cache
}

func NewResolver(source RoleSource, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultRoleCacheTTL
	}
	return &Resolver{
		source: source,
		cache:  gocache.New(ttl, ttl),
	}
}

// Resolve returns the role for a principal. An empty principal id means
// unauthenticated and resolves to RoleNone; a missing authority row
// resolves to RoleMember, the implicit default. Lookup failures are
// surfaced, never downgraded to RoleNone: a transient backend error must
// not read as "unauthenticated".
func (r *Resolver) Resolve(ctx context.Context, principalID string) (Role, error) {
	if principalID == "" {
		return RoleNone, nil
	}

	if cached, ok := r.cache.Get(principalID); ok {
		metrics.RoleLookupsTotal.WithLabelValues("cache").Inc()
		return cached.(Role), nil
	}

	raw, ok, err := r.source.LookupRole(ctx, principalID)
	if err != nil {
		metrics.RoleLookupsTotal.WithLabelValues("error").Inc()
		return RoleNone, fmt.Errorf("%w: %v", ErrRoleFetch, err)
	}

	role := RoleMember
	if ok {
		role = ParseRole(raw)
		if role == RoleNone {
			// Unrecognized authority value: deny rather than default up.
			metrics.RoleLookupsTotal.WithLabelValues("unknown").Inc()
			return RoleNone, nil
		}
	}

	r.cache.SetDefault(principalID, role)
	metrics.RoleLookupsTotal.WithLabelValues("source").Inc()
	return role, nil
}

// Invalidate drops the cached role for a principal.
func (r *Resolver) Invalidate(principalID string) {
	if principalID == "" {
		return
	}
	r.cache.Delete(principalID)
}
