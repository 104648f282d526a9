package health

import (
	"context"
	"testing"
)

type fakeSource struct {
	snap  Snapshot
	calls int
}

func (s *fakeSource) Snapshot(ctx context.Context) Snapshot {
	s.calls++
	return s.snap
}

func TestCheckHealth_StatusDerivation(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want SystemStatus
	}{
		{"clean", Snapshot{Mode: "normal", SessionState: "valid"}, StatusHealthy},
		{"recovery mode", Snapshot{Mode: "recovery", SessionState: "valid"}, StatusDegraded},
		{"some failures", Snapshot{Mode: "normal", ConsecutiveFailures: 2, SessionState: "valid"}, StatusDegraded},
		{"undelivered notifications", Snapshot{Mode: "normal", SessionState: "valid", FallbackEntries: 1}, StatusDegraded},
		{"invalid session", Snapshot{Mode: "normal", SessionState: "invalid"}, StatusCritical},
		{"failure runaway", Snapshot{Mode: "recovery", ConsecutiveFailures: 20, SessionState: "valid"}, StatusCritical},
	}

	for _, tt := range tests {
		m := NewMonitor(&fakeSource{snap: tt.snap}, 10)
		if got := m.CheckHealth(context.Background()).Status; got != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCheckHealth_CachesBriefly(t *testing.T) {
	src := &fakeSource{snap: Snapshot{Mode: "normal", SessionState: "valid"}}
	m := NewMonitor(src, 10)

	for i := 0; i < 5; i++ {
		m.CheckHealth(context.Background())
	}
	if src.calls != 1 {
		t.Errorf("snapshot taken %d times within cache window, want 1", src.calls)
	}
}
