package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

type fakeScanner struct {
	results map[string][]domain.Opportunity
	errs    map[string]error
}

func (s *fakeScanner) Scan(ctx context.Context, target string) ([]domain.Opportunity, error) {
	if err := s.errs[target]; err != nil {
		return nil, err
	}
	return s.results[target], nil
}

func opp(id string, at time.Time) domain.Opportunity {
	return domain.Opportunity{ID: id, Title: "Warehouse " + id, DiscoveredAt: at}
}

func TestFanOut_MergesAndOrders(t *testing.T) {
	base := time.Now()
	sc := &fakeScanner{results: map[string][]domain.Opportunity{
		"a": {opp("2", base.Add(2 * time.Second))},
		"b": {opp("1", base.Add(time.Second)), opp("3", base.Add(3 * time.Second))},
	}}

	for _, parallel := range []bool{false, true} {
		res := FanOut(context.Background(), sc, []string{"a", "b"}, parallel, nil)
		if len(res.Failed) != 0 {
			t.Fatalf("parallel=%v: unexpected failures: %v", parallel, res.Failed)
		}
		if len(res.Scanned) != 2 || len(res.Opportunities) != 3 {
			t.Fatalf("parallel=%v: scanned=%d opps=%d, want 2/3", parallel, len(res.Scanned), len(res.Opportunities))
		}
		if parallel {
			for i, want := range []string{"1", "2", "3"} {
				if res.Opportunities[i].ID != want {
					t.Errorf("opportunity %d = %s, want %s", i, res.Opportunities[i].ID, want)
				}
			}
		}
	}
}

func TestFanOut_PartialFailureIsNotFatal(t *testing.T) {
	sc := &fakeScanner{
		results: map[string][]domain.Opportunity{"good": {opp("1", time.Now())}},
		errs:    map[string]error{"bad": errors.New("timeout")},
	}

	res := FanOut(context.Background(), sc, []string{"good", "bad"}, false, nil)
	if res.AllFailed() {
		t.Error("AllFailed true with one successful target")
	}
	if len(res.Opportunities) != 1 {
		t.Errorf("got %d opportunities, want 1", len(res.Opportunities))
	}
	if res.Failed["bad"] == nil {
		t.Error("failed target not recorded")
	}
}

func TestFanOut_AllFailed(t *testing.T) {
	sc := &fakeScanner{errs: map[string]error{
		"a": errors.New("down"),
		"b": errors.New("down"),
	}}

	res := FanOut(context.Background(), sc, []string{"a", "b"}, false, nil)
	if !res.AllFailed() {
		t.Error("AllFailed false when every target failed")
	}
}

type fakeSeen struct {
	seen map[string]bool
	errs map[string]error
}

func (s *fakeSeen) MarkSeen(ctx context.Context, id string) (bool, error) {
	if err := s.errs[id]; err != nil {
		return false, err
	}
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

func (s *fakeSeen) Forget(ctx context.Context, id string) error {
	delete(s.seen, id)
	return nil
}

func TestDedupe_FiltersRepeats(t *testing.T) {
	store := &fakeSeen{seen: map[string]bool{"old": true}}
	opps := []domain.Opportunity{opp("old", time.Now()), opp("new", time.Now())}

	fresh := Dedupe(context.Background(), store, opps, nil)
	if len(fresh) != 1 || fresh[0].ID != "new" {
		t.Errorf("fresh = %v, want only new", fresh)
	}
}

func TestDedupe_StoreErrorKeepsOpportunity(t *testing.T) {
	store := &fakeSeen{seen: map[string]bool{}, errs: map[string]error{"x": errors.New("redis down")}}
	opps := []domain.Opportunity{opp("x", time.Now())}

	fresh := Dedupe(context.Background(), store, opps, nil)
	if len(fresh) != 1 {
		t.Errorf("opportunity dropped on store error")
	}
}

func TestDedupe_ForgottenOpportunityReturns(t *testing.T) {
	store := &fakeSeen{seen: map[string]bool{}}
	opps := []domain.Opportunity{opp("x", time.Now())}

	if fresh := Dedupe(context.Background(), store, opps, nil); len(fresh) != 1 {
		t.Fatalf("first sighting filtered")
	}
	if fresh := Dedupe(context.Background(), store, opps, nil); len(fresh) != 0 {
		t.Fatalf("second sighting not filtered")
	}

	if err := store.Forget(context.Background(), "x"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if fresh := Dedupe(context.Background(), store, opps, nil); len(fresh) != 1 {
		t.Errorf("forgotten opportunity still filtered")
	}
}

func TestDedupe_NilStorePassthrough(t *testing.T) {
	opps := []domain.Opportunity{opp("1", time.Now()), opp("2", time.Now())}
	fresh := Dedupe(context.Background(), nil, opps, nil)
	if len(fresh) != 2 {
		t.Errorf("nil store filtered opportunities")
	}
}
