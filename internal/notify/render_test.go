package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

func TestRender(t *testing.T) {
	booking := &domain.BookingRecord{
		Title:         "Sortation Associate",
		Location:      "YYZ1",
		Schedule:      "Sat 07:00-15:30",
		CorrelationID: "4-j1",
		Strategy:      "instant-apply",
	}

	tests := []struct {
		name     string
		ev       *domain.Event
		contains []string
	}{
		{
			"claim success carries booking details",
			&domain.Event{Type: domain.EventClaimSuccess, Cycle: 4, Booking: booking},
			[]string{"SHIFT BOOKED", "Sortation Associate", "YYZ1", "4-j1", "instant-apply", "Cycle: 4"},
		},
		{
			"claim failure carries reason",
			&domain.Event{Type: domain.EventClaimFailure, Cycle: 2, Reason: "all strategies exhausted", Booking: booking},
			[]string{"Booking failed", "all strategies exhausted"},
		},
		{
			"summary lists targets and counts",
			&domain.Event{Type: domain.EventCycleSummary, Cycle: 10, Stats: &domain.CycleStats{
				Cycle:              10,
				OpportunitiesFound: 2,
				ClaimsAttempted:    2,
				ClaimsSucceeded:    1,
				TargetsScanned:     []string{"Toronto", "Brampton"},
				TargetsFailed:      []string{"Mississauga"},
				Duration:           1400 * time.Millisecond,
			}},
			[]string{"Cycle #10", "Shifts found: 2", "2 attempted, 1 booked", "Toronto, Brampton (1 failed)", "1.4s"},
		},
		{
			"recovery entered names the streak",
			&domain.Event{Type: domain.EventRecoveryEntered, Reason: "10"},
			[]string{"Recovery mode activated", "Consecutive failures: 10"},
		},
		{
			"fatal shutdown carries reason",
			&domain.Event{Type: domain.EventFatalShutdown, Cycle: 3, Reason: "credentials permanently rejected"},
			[]string{"FATAL", "credentials permanently rejected"},
		},
		{
			"shutdown includes meta",
			&domain.Event{Type: domain.EventShutdown, Cycle: 12, Meta: map[string]string{"total_bookings": "2"}},
			[]string{"Monitoring stopped", "total_bookings: 2", "Total cycles: 12"},
		},
	}

	for _, tt := range tests {
		got := Render(tt.ev)
		for _, want := range tt.contains {
			if !strings.Contains(got, want) {
				t.Errorf("%s: rendered message missing %q:\n%s", tt.name, want, got)
			}
		}
	}
}
