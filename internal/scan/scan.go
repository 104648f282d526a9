// Package scan defines the opportunity-scan collaborator contract and
// the parallel fan-out used to probe independent targets.
package scan

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/metrics"
)

// Scanner probes one target (a city) for claimable shifts.
type Scanner interface {
	Scan(ctx context.Context, target string) ([]domain.Opportunity, error)
}

// Result merges per-target scans. Partial failure is acceptable: some
// targets succeeding while others fail is reported, not fatal.
type Result struct {
	Opportunities []domain.Opportunity
	Scanned       []string
	Failed        map[string]error
}

// AllFailed reports whether no target produced a result.
func (r Result) AllFailed() bool {
	return len(r.Scanned) == 0 && len(r.Failed) > 0
}

// FanOut scans every target and merges the results into one sequential
// list ordered by discovery time. Targets are read-only probes so they
// may run in parallel; claiming stays strictly serialized downstream.
func FanOut(ctx context.Context, sc Scanner, targets []string, parallel bool, log *slog.Logger) Result {
	if log == nil {
		log = slog.Default()
	}
	res := Result{Failed: make(map[string]error)}

	if !parallel {
		for _, target := range targets {
			opps, err := sc.Scan(ctx, target)
			collect(&res, target, opps, err, log)
		}
		return res
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			opps, err := sc.Scan(ctx, target)
			mu.Lock()
			defer mu.Unlock()
			collect(&res, target, opps, err, log)
		}(target)
	}
	wg.Wait()

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		return res.Opportunities[i].DiscoveredAt.Before(res.Opportunities[j].DiscoveredAt)
	})
	return res
}

func collect(res *Result, target string, opps []domain.Opportunity, err error, log *slog.Logger) {
	if err != nil {
		log.Warn("scan target failed", "target", target, "error", err)
		res.Failed[target] = err
		return
	}
	res.Scanned = append(res.Scanned, target)
	res.Opportunities = append(res.Opportunities, opps...)
	metrics.OpportunitiesFound.WithLabelValues(target).Add(float64(len(opps)))
}

// SeenStore remembers which opportunities were already processed so a
// shift lingering on the board is claimed and reported once.
type SeenStore interface {
	// MarkSeen records id and reports whether this was the first sighting.
	MarkSeen(ctx context.Context, id string) (first bool, err error)

	// Forget removes id so a later sighting counts as first again. Used
	// when a claim fails recoverably: the shift may still be winnable
	// next cycle.
	Forget(ctx context.Context, id string) error
}

// Dedupe filters out opportunities the store has seen before. A nil store
// disables deduplication; store errors keep the opportunity (better a
// duplicate claim attempt than a missed shift).
func Dedupe(ctx context.Context, store SeenStore, opps []domain.Opportunity, log *slog.Logger) []domain.Opportunity {
	if store == nil {
		return opps
	}
	if log == nil {
		log = slog.Default()
	}
	fresh := opps[:0]
	for _, opp := range opps {
		first, err := store.MarkSeen(ctx, opp.ID)
		if err != nil {
			log.Warn("seen store unavailable, keeping opportunity", "id", opp.ID, "error", err)
			fresh = append(fresh, opp)
			continue
		}
		if first {
			fresh = append(fresh, opp)
		}
	}
	return fresh
}
