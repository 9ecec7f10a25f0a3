package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SagaOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_orders_total",
			Help: "Order placements by final outcome and failure reason",
		},
		[]string{"outcome", "reason"},
	)

	SagaStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_step_duration_seconds",
			Help:    "Duration of each remote call made by the order saga",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"step"},
	)

	// Known gaps between the stores: debited but not recorded, recorded but
	// stock not decremented, confirmed but not notified.
	SagaInconsistencies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_inconsistencies_total",
			Help: "Post-commit steps that failed and were not compensated",
		},
		[]string{"kind"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	NotificationsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications drained from the outbound queue",
		},
	)
)
