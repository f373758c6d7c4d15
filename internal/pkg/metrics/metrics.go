// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_requests_total",
		Help: "The total number of requests",
	}, []string{"route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"status"})

	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_token_refresh_total",
		Help: "The total number of token refreshes",
	}, []string{"status"})

	// AccessChecksTotal counts access checks by outcome: ok, unauthorized, forbidden, unavailable.
	AccessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_access_checks_total",
		Help: "The total number of access checks",
	}, []string{"result"})

	SessionsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_sessions_ended_total",
		Help: "The total number of force-expired sessions",
	}, []string{"reason"})

	TokensRevokedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_tokens_revoked_total",
		Help: "The total number of revoked token ids",
	}, []string{"reason"})

	RefreshReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_refresh_replays_total",
		Help: "The total number of detected refresh token replays",
	})
)
