package notify

import (
	"context"
	"log/slog"
	"time"
)

// LogChannel writes notifications to the process log. It stands in for
// the webhook channel when none is configured so the dispatcher always
// has somewhere to deliver.
type LogChannel struct {
	log *slog.Logger
}

// NewLogChannel creates a channel that logs instead of posting.
func NewLogChannel(log *slog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

// Post logs the rendered message and always succeeds.
func (c *LogChannel) Post(_ context.Context, content string, _ time.Duration) error {
	c.log.Info("notification", "message", content)
	return nil
}
