// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecipeWrites counts recipe create/update/delete calls.
	// Labels:
	//   - operation: "create", "update", "delete"
	//   - outcome: "success", "failure"
	RecipeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Total number of recipe write operations",
		},
		[]string{"operation", "outcome"},
	)

	RecipeWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_recipe_write_duration_seconds",
			Help:    "Duration of recipe write transactions in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// MembershipChanges counts favorite, shopping cart and subscription changes.
	// Labels:
	//   - set: "favorite", "shopping_cart", "subscription"
	//   - action: "add", "remove"
	//   - outcome: "success", "conflict", "failure"
	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_membership_changes_total",
			Help: "Total number of membership set changes",
		},
		[]string{"set", "action", "outcome"},
	)

	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of shopping list downloads",
		},
	)

	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Number of aggregated lines per shopping list download",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func RecordRecipeWrite(operation string, started time.Time, err error) {
	RecipeWrites.WithLabelValues(operation, outcome(err)).Inc()
	RecipeWriteDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordMembership labels conflicts separately so duplicate adds are visible.
func RecordMembership(set, action string, conflict bool, err error) {
	result := outcome(err)
	if conflict {
		result = "conflict"
	}
	MembershipChanges.WithLabelValues(set, action, result).Inc()
}

func RecordShoppingListDownload(lines int) {
	ShoppingListDownloads.Inc()
	ShoppingListLines.Observe(float64(lines))
}
