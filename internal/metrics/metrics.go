// Package metrics exposes Prometheus collectors for the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holidays_refresh_total",
		Help: "Refresh cycles by outcome",
	}, []string{"outcome"}) // outcome=success|partial|failure

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "holidays_refresh_duration_seconds",
		Help:    "Duration of a full refresh cycle",
		Buckets: prometheus.DefBuckets,
	})

	holidayState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "holidays_state",
		Help: "Holiday state per calendar and day (1=holiday)",
	}, []string{"calendar", "day"}) // day=today|tomorrow

	isyErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holidays_isy_errors_total",
		Help: "Total ISY request failures",
	})

	googleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holidays_google_errors_total",
		Help: "Total Google Calendar API failures",
	})

	nodeRegenerations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holidays_node_regenerations_total",
		Help: "Node pairs destructively regenerated after a calendar order change",
	})
)

// ObserveRefresh records one refresh cycle.
func ObserveRefresh(outcome string, seconds float64) {
	refreshTotal.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(seconds)
}

// SetHolidayState records the reported state of one day node.
func SetHolidayState(calendar, day string, holiday bool) {
	v := 0.0
	if holiday {
		v = 1.0
	}
	holidayState.WithLabelValues(calendar, day).Set(v)
}

// IncISYError counts a failed ISY request.
func IncISYError() { isyErrors.Inc() }

// IncGoogleError counts a failed Google Calendar API call.
func IncGoogleError() { googleErrors.Inc() }

// IncNodeRegenerations counts a destructive node regeneration.
func IncNodeRegenerations() { nodeRegenerations.Inc() }
