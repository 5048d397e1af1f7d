// Package metrics exposes Prometheus counters for the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AwardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_awards_total",
		Help: "Committed point awards.",
	})

	PointsAwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_points_awarded_total",
		Help: "Effective points credited, boost included.",
	})

	RedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_redemptions_total",
		Help: "Committed coin redemptions.",
	})

	CorrectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_admin_corrections_total",
		Help: "Committed admin balance corrections.",
	})

	InvariantViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_invariant_violations_total",
		Help: "Writes rejected by the consistency guard.",
	})

	ReconcileRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_reconcile_repairs_total",
		Help: "Members repaired by the reconciliation job.",
	})

	ReconcileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_reconcile_failures_total",
		Help: "Per-member reconciliation failures.",
	})
)
