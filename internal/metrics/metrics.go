package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookDeliveries counts webhook POSTs by HTTP outcome.
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_webhook_deliveries_total",
			Help: "Webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// Events counts triaged events by kind.
	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Inbound events by kind",
		},
		[]string{"kind"},
	)

	// Dispatches counts dispatch results by the table that answered.
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dispatch_total",
			Help: "Dispatch results by route",
		},
		[]string{"route"},
	)

	// Sends counts outbound units by status.
	Sends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_outbound_units_total",
			Help: "Outbound message units by status",
		},
		[]string{"status"},
	)

	// ProfileFetches counts profile lookups by status.
	ProfileFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_profile_fetches_total",
			Help: "User profile fetches by status",
		},
		[]string{"status"},
	)

	// Sessions is the number of cached sessions.
	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_sessions",
			Help: "Sessions currently held in the registry",
		},
	)
)
