package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pet_profiles"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	PetCreates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pet_create_total", Help: "Create-pet outcomes (created, invalid, unauthenticated, owner_not_found, dependency_error, storage_error)."},
		[]string{"outcome"},
	)
	DirectoryLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "directory_lookups_total", Help: "User directory lookups by result (found, not_found, error)."},
		[]string{"result"},
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Requests rejected by limiter type."},
		[]string{"limiter"},
	)
)

// RegisterCollectors registra los collectors en reg.
// Un mismo collector puede registrarse en varios registries (un router por test).
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(PetCreates)
	reg.MustRegister(DirectoryLookups)
	reg.MustRegister(RateLimited)
}
