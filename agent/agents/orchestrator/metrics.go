package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the call counters exported on /metrics.
type Metrics struct {
	SessionsActive    prometheus.Gauge
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	Turns             *prometheus.CounterVec
	Capabilities      *prometheus.CounterVec
	Bookings          *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_booking_sessions_active",
			Help: "Number of calls currently in progress",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_booking_sessions_started_total",
			Help: "Total number of calls started",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_booking_sessions_completed_total",
			Help: "Total number of calls whose record was persisted",
		}),
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_booking_turns_total",
			Help: "Customer turns by outcome",
		}, []string{"status"}),
		Capabilities: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_booking_capability_calls_total",
			Help: "Capability invocations by tool and outcome",
		}, []string{"tool", "status"}),
		Bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_booking_bookings_total",
			Help: "bookSlot outcomes",
		}, []string{"status"}),
	}
}
