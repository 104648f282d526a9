// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the bot.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Snapshot is the orchestrator's externally visible state.
type Snapshot struct {
	Mode                string `json:"mode"`
	Cycle               int    `json:"cycle"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	BookingsToday       int    `json:"bookings_today"`
	DailyQuota          int    `json:"daily_quota"`
	SessionState        string `json:"session_state"`
	FallbackEntries     int    `json:"fallback_entries"`
}

// Report is the full health report served on /health/detailed.
type Report struct {
	Status SystemStatus `json:"status"`
	Snapshot
}
