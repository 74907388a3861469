package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Counter reports the number of stored entries.
type Counter interface {
	Count() (int, error)
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Active() int
}

// StartCollector periodically refreshes gauge metrics until ctx is done.
// sessions may be nil.
func StartCollector(ctx context.Context, entries Counter, sessions SessionCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on startup
	collect(entries, sessions)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collect(entries, sessions)
		}
	}
}

func collect(entries Counter, sessions SessionCounter) {
	if count, err := entries.Count(); err == nil {
		EntriesTotal.Set(float64(count))
	} else {
		slog.Debug("failed to count entries for metrics", "error", err)
	}

	if sessions != nil {
		ActiveSessionsTotal.Set(float64(sessions.Active()))
	}
}
