package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// FallbackLog is the durable append-only sink for events the channel
// could not deliver. Consumed externally for audit and troubleshooting.
type FallbackLog interface {
	Append(ctx context.Context, ev *domain.Event, reason string) error
}

// fallbackEntry is the JSON-lines record written per undelivered event.
type fallbackEntry struct {
	LoggedAt time.Time     `json:"logged_at"`
	Reason   string        `json:"reason"`
	Event    *domain.Event `json:"event"`
	Message  string        `json:"message"`
}

// FileFallback appends undelivered events to a local JSONL file.
// Single-writer sequential access; the mutex only guards against a
// concurrent health probe reading the size.
type FileFallback struct {
	path string

	mu    sync.Mutex
	count int
}

// NewFileFallback creates a file-backed fallback log.
func NewFileFallback(path string) *FileFallback {
	return &FileFallback{path: path}
}

// Append writes one entry. The file is opened per append so a crash
// between events never leaves the log in a torn state.
func (f *FileFallback) Append(ctx context.Context, ev *domain.Event, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open fallback log: %w", err)
	}
	defer file.Close()

	entry := fallbackEntry{
		LoggedAt: time.Now(),
		Reason:   reason,
		Event:    ev,
		Message:  Render(ev),
	}
	if err := json.NewEncoder(file).Encode(entry); err != nil {
		return fmt.Errorf("append fallback entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync fallback log: %w", err)
	}
	f.count++
	return nil
}

// Count reports entries appended during this process lifetime.
func (f *FileFallback) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}
