// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_requests_total",
			Help: "Total number of webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	RelayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "relay_duration_seconds",
			Help: "Duration of the relay pipeline in seconds",
		},
		[]string{"outcome"},
	)

	PhotoDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_photo_degraded_total",
			Help: "Photo fetches that fell back to the default image",
		},
	)

	ChatNotifyFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_chat_notify_failed_total",
			Help: "Chat notifications that failed after a successful publish",
		},
	)

	DuplicateDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_duplicate_deliveries_total",
			Help: "Webhook redeliveries short-circuited by the dedup cache",
		},
	)
)
