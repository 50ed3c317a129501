// Package metrics defines and registers all custom Prometheus metrics for the
// DaftLink API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "daftlink"

// ── Chain metrics ─────────────────────────────────────────────────────────────

// ChainsCreatedTotal counts chains created or duplicated.
// Labels:
//   - plan: owner plan at creation time ("free", "pro", "enterprise")
//   - origin: "create" or "duplicate"
var ChainsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chains_created_total",
		Help:      "Total number of chains created, by owner plan and origin.",
	},
	[]string{"plan", "origin"},
)

// QuotaDenialsTotal counts create requests refused by the plan quota.
// Label:
//   - plan: owner plan
var QuotaDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_denials_total",
		Help:      "Total number of chain creations refused because the plan limit was reached.",
	},
	[]string{"plan"},
)

// EngagementTotal counts public engagement events.
// Labels:
//   - kind: "view", "click" or "join"
//   - result: "ok", "not_found", "full" or "error"
var EngagementTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engagement_total",
		Help:      "Total number of public engagement events, by kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// ChainsExpiredTotal counts chains moved to expired by the sweeper.
var ChainsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chains_expired_total",
		Help:      "Total number of active chains transitioned to expired by the sweeper.",
	},
)

// SweepRunsTotal counts sweeper ticks.
// Label:
//   - result: "ok", "error" or "skipped" (lock held by another instance)
var SweepRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Total number of expiry sweeps, by result.",
	},
	[]string{"result"},
)

// SweepDuration measures one expiry sweep including lock handling.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of an expiry sweep.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts rejected authentication attempts.
// Label:
//   - reason: "invalid_credentials", "missing_token", "unauthenticated" or "plan_required"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication or authorization attempts.",
	},
	[]string{"reason"},
)
