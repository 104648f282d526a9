package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks completed monitoring cycles by result
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_cycles_total",
			Help: "Total number of monitoring cycles",
		},
		[]string{"result"},
	)

	// CycleDuration tracks how long one monitoring cycle takes
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiftbot_cycle_duration_seconds",
			Help:    "Monitoring cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OpportunitiesFound tracks discovered shifts per scan target
	OpportunitiesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_opportunities_found_total",
			Help: "Total number of shift opportunities discovered",
		},
		[]string{"target"},
	)

	// ClaimsTotal tracks claim attempts by result
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"result"},
	)

	// BookingsToday tracks bookings counted against the daily quota
	BookingsToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shiftbot_bookings_today",
			Help: "Bookings made since the last daily reset",
		},
	)

	// ConsecutiveFailures tracks the failure streak driving recovery mode
	ConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shiftbot_consecutive_failures",
			Help: "Consecutive failed monitoring cycles",
		},
	)

	// RecoveryMode is 1 while the orchestrator is in recovery mode
	RecoveryMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shiftbot_recovery_mode",
			Help: "Whether the orchestrator is in recovery mode (0/1)",
		},
	)

	// NotificationsTotal tracks dispatcher outcomes
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_notifications_total",
			Help: "Total notification events by delivery result",
		},
		[]string{"result"},
	)

	// SessionValidations tracks session probe outcomes
	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_session_validations_total",
			Help: "Total session validations by result",
		},
		[]string{"result"},
	)

	// ExecutorAttempts tracks strategy attempts per operation
	ExecutorAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftbot_executor_attempts_total",
			Help: "Total strategy attempts per operation",
		},
		[]string{"operation", "strategy"},
	)
)
