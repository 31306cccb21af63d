package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_notifications_total",
			Help: "Notification delivery attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_dispatch_duration_seconds",
			Help:    "Duration of push provider calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
	reminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_reminder_runs_total",
			Help: "Reminder batch runs by result.",
		},
		[]string{"result"},
	)
)
