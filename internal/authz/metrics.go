package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// roleFallbacks counts identities carrying a role outside the fixed catalog.
	roleFallbacks = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "role_fallback_total",
		Help: "Number of principals whose role fell back to below-guest rank.",
	})

	// denials counts authorization denials on privileged actions.
	denials = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "authz_denials_total",
		Help: "Number of denied authorization checks.",
	}, []string{"resource", "action"})
)

// CountDenial records a denial on the operational error channel metrics.
func CountDenial(resource, action string) {
	denials.WithLabelValues(resource, action).Inc()
}
