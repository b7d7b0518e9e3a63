// Package aggregate computes budget spend, budget groupings and dashboard
// summaries from in-memory snapshots of a user's transactions and budgets.
//
// Every function here is pure: inputs are never mutated and outputs are
// freshly allocated, so callers can recompute on every read.
package aggregate

import "time"

const (
	DefaultTopCategoryLimit       = 6
	DefaultRecentTransactionLimit = 5
	DefaultDashboardBudgetLimit   = 3
)

// Options holds the display bounds and the reference location used for
// day-boundary normalization.
type Options struct {
	Location               *time.Location
	TopCategoryLimit       int
	RecentTransactionLimit int
	DashboardBudgetLimit   int
}

// DefaultOptions returns UTC normalization and the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Location:               time.UTC,
		TopCategoryLimit:       DefaultTopCategoryLimit,
		RecentTransactionLimit: DefaultRecentTransactionLimit,
		DashboardBudgetLimit:   DefaultDashboardBudgetLimit,
	}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}
