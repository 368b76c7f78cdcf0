// Package metrics defines and registers all custom Prometheus metrics for the
// storefront session core. It is the single source of truth for metric names,
// labels, and help strings. Metrics self-register with the default registry
// via promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// AuthTransitionsTotal counts published auth state transitions.
// Labels:
//   - to: "authenticated" or "anonymous"
//   - trigger: the operation that caused the transition ("login",
//     "admin_login", "logout", "check")
var AuthTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_transitions_total",
		Help:      "Total number of auth state transitions, by resulting state and trigger.",
	},
	[]string{"to", "trigger"},
)

// SessionsInvalidatedTotal counts sessions cleared after a backend auth
// failure.
// Label:
//   - status: the HTTP status that triggered invalidation ("401" or "403")
var SessionsInvalidatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_invalidated_total",
		Help:      "Total number of stored sessions cleared after a 401/403 from the backend.",
	},
	[]string{"status"},
)

// CartMutationsTotal counts cart state machine mutations.
// Label:
//   - op: "add", "remove", "update_quantity", or "clear"
var CartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of cart mutations, by operation.",
	},
	[]string{"op"},
)

// ActiveRuntimes tracks the number of live per-browser runtimes.
var ActiveRuntimes = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_runtimes",
		Help:      "Current number of per-browser session runtimes held in memory.",
	},
)

// RuntimesEvictedTotal counts runtimes removed by the idle-TTL sweeper.
var RuntimesEvictedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runtimes_evicted_total",
		Help:      "Total number of idle per-browser runtimes evicted.",
	},
)
