package portal

import (
	"context"
	"fmt"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// ClaimStrategy is one concrete technique to claim an opportunity. Each
// strategy classifies its own failures as recoverable or fatal.
type ClaimStrategy interface {
	Name() string
	Attempt(ctx context.Context, opp domain.Opportunity) error
}

// ClaimStrategies returns the claim chain in preference order: the
// instant-apply endpoint first, the legacy application flow as fallback.
func (c *Client) ClaimStrategies() []ClaimStrategy {
	return []ClaimStrategy{
		instantApply{c},
		legacyApply{c},
	}
}

type applyRequest struct {
	JobID string `json:"jobId"`
}

type applyResponse struct {
	Status string `json:"status"`
}

// instantApply books via the one-shot apply endpoint.
type instantApply struct{ c *Client }

func (s instantApply) Name() string { return "instant-apply" }

func (s instantApply) Attempt(ctx context.Context, opp domain.Opportunity) error {
	var resp applyResponse
	if err := s.c.do(ctx, "POST", "/api/jobs/apply", applyRequest{JobID: opp.ID}, &resp); err != nil {
		return err
	}
	if resp.Status != "confirmed" {
		return fmt.Errorf("apply not confirmed: %q", resp.Status)
	}
	return nil
}

// legacyApply walks the two-step application flow: create, then submit.
type legacyApply struct{ c *Client }

func (s legacyApply) Name() string { return "legacy-apply" }

func (s legacyApply) Attempt(ctx context.Context, opp domain.Opportunity) error {
	var created struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := s.c.do(ctx, "POST", "/api/applications", applyRequest{JobID: opp.ID}, &created); err != nil {
		return err
	}
	if created.ApplicationID == "" {
		return fmt.Errorf("application not created for job %s", opp.ID)
	}

	var resp applyResponse
	path := fmt.Sprintf("/api/applications/%s/submit", created.ApplicationID)
	if err := s.c.do(ctx, "POST", path, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "submitted" && resp.Status != "confirmed" {
		return fmt.Errorf("application not submitted: %q", resp.Status)
	}
	return nil
}
