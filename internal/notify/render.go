package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// Render turns an event into the human-readable message posted to the
// channel and written to the fallback log.
func Render(ev *domain.Event) string {
	var b strings.Builder

	switch ev.Type {
	case domain.EventStartup:
		b.WriteString("**Shift monitoring started**\n")
		writeMeta(&b, ev)
		b.WriteString("Monitoring for claimable shifts.")

	case domain.EventClaimSuccess:
		b.WriteString("🎉 **SHIFT BOOKED**\n")
		if bk := ev.Booking; bk != nil {
			fmt.Fprintf(&b, "Position: %s\nLocation: %s\nSchedule: %s\nBooking ID: %s\nStrategy: %s\n",
				bk.Title, bk.Location, bk.Schedule, bk.CorrelationID, bk.Strategy)
		}
		fmt.Fprintf(&b, "Cycle: %d", ev.Cycle)

	case domain.EventClaimFailure:
		b.WriteString("❌ **Booking failed**\n")
		if bk := ev.Booking; bk != nil {
			fmt.Fprintf(&b, "Position: %s\nLocation: %s\n", bk.Title, bk.Location)
		}
		fmt.Fprintf(&b, "Reason: %s\nCycle: %d", ev.Reason, ev.Cycle)

	case domain.EventCycleSummary:
		fmt.Fprintf(&b, "**Cycle #%d complete**\n", ev.Cycle)
		if st := ev.Stats; st != nil {
			fmt.Fprintf(&b, "Shifts found: %d\nClaims: %d attempted, %d booked\nTargets: %s\nDuration: %s",
				st.OpportunitiesFound, st.ClaimsAttempted, st.ClaimsSucceeded,
				targetsLine(st), st.Duration.Round(100*time.Millisecond))
		}

	case domain.EventRecoveryEntered:
		b.WriteString("🔧 **Recovery mode activated**\n")
		fmt.Fprintf(&b, "Consecutive failures: %s\nExtended backoff and forced session revalidation in effect.", ev.Reason)

	case domain.EventRecoveryExited:
		b.WriteString("✅ **Recovery mode exited**\n")
		fmt.Fprintf(&b, "Clean cycle #%d completed, resuming normal interval.", ev.Cycle)

	case domain.EventFatalShutdown:
		b.WriteString("🚨 **FATAL: monitoring terminated**\n")
		fmt.Fprintf(&b, "Reason: %s\nCycle: %d", ev.Reason, ev.Cycle)

	case domain.EventShutdown:
		b.WriteString("**Monitoring stopped**\n")
		writeMeta(&b, ev)
		fmt.Fprintf(&b, "Total cycles: %d", ev.Cycle)

	default:
		fmt.Fprintf(&b, "%s: %s", ev.Type, ev.Reason)
	}

	return b.String()
}

func writeMeta(b *strings.Builder, ev *domain.Event) {
	for k, v := range ev.Meta {
		fmt.Fprintf(b, "%s: %s\n", k, v)
	}
}

func targetsLine(st *domain.CycleStats) string {
	if len(st.TargetsScanned) == 0 {
		return "none"
	}
	line := strings.Join(st.TargetsScanned, ", ")
	if len(st.TargetsFailed) > 0 {
		line += fmt.Sprintf(" (%d failed)", len(st.TargetsFailed))
	}
	return line
}
