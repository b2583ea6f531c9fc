package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "memberdesk"
)

var (
	// Auth Metrics
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Count of member login attempts by outcome.",
	}, []string{"status"})

	PrincipalSignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "principal_signups_total",
		Help:      "Count of first-login identity creations.",
	})

	LinkUpdateFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_update_failures_total",
		Help:      "Count of failed member auth_user_id link writes.",
	})

	// Role Metrics
	RoleLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_lookups_total",
		Help:      "Count of role resolutions by result source.",
	}, []string{"source"})

	// Password Metrics
	PasswordResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Count of credential rotations by mode.",
	}, []string{"mode"})

	// Session Metrics
	SessionsRevokedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Count of revoked identity sessions by reason.",
	}, []string{"reason"})
)
