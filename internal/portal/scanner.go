package portal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

type searchResponse struct {
	Jobs []struct {
		JobID    string `json:"jobId"`
		Title    string `json:"title"`
		Location string `json:"location"`
		Schedule string `json:"schedule"`
		PayRate  string `json:"payRate"`
	} `json:"jobs"`
}

// Scan probes one city for claimable shifts. Implements scan.Scanner.
func (c *Client) Scan(ctx context.Context, target string) ([]domain.Opportunity, error) {
	var resp searchResponse
	path := fmt.Sprintf("/api/jobs/search?city=%s", url.QueryEscape(target))
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("scan %s: %w", target, err)
	}

	now := time.Now()
	opps := make([]domain.Opportunity, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		opps = append(opps, domain.Opportunity{
			ID:           job.JobID,
			Title:        job.Title,
			Location:     job.Location,
			Schedule:     job.Schedule,
			PayRate:      job.PayRate,
			Target:       target,
			DiscoveredAt: now,
		})
	}
	return opps, nil
}
