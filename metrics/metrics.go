// Package metrics declares the Prometheus instruments for the loyalty
// platform. Counters are registered via promauto at init and exposed on
// /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PointsEarned counts total points credited across all customers.
var PointsEarned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loyalty_points_earned_total",
	Help: "Total loyalty points credited to customer accounts.",
})

// Redemptions counts successful reward redemptions.
var Redemptions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loyalty_redemptions_total",
	Help: "Total successful reward redemptions.",
})

// Conflicts counts transaction commits aborted by a concurrent writer.
var Conflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loyalty_tx_conflicts_total",
	Help: "Total transaction conflicts detected during atomic commits.",
})

// EarnFailures counts earn attempts that failed after retries and were
// swallowed by the fulfillment hook.
var EarnFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loyalty_earn_failures_total",
	Help: "Total order credit attempts that failed and were logged.",
})

// OrdersFulfilled counts orders that reached the delivered state.
var OrdersFulfilled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "orders_fulfilled_total",
	Help: "Total orders transitioned to delivered.",
})
