package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"yatube/app/logging"
	"yatube/app/metrics"
)

// gcDiscardRatio is the share of stale data a value log file needs before it is rewritten.
const gcDiscardRatio = 0.5

// BadgerGC rewrites value log files until Badger reports nothing left to
// reclaim. It must not be scheduled for in-memory stores.
func BadgerGC(db *badger.DB) Task {
	return func(ctx context.Context) error {
		rewrites := 0
		for ctx.Err() == nil {
			err := db.RunValueLogGC(gcDiscardRatio)
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			if err != nil {
				metrics.RecordGC("badger", err)
				return fmt.Errorf("value log gc: %w", err)
			}
			rewrites++
		}
		metrics.RecordGC("badger", nil)
		if rewrites > 0 {
			logging.Info().Int("rewrites", rewrites).Msg("badger value log compacted")
		}
		return nil
	}
}

// SessionSweeper purges expired sessions.
type SessionSweeper interface {
	SweepSessions(ctx context.Context) (int, error)
}

// SweepSessions deletes expired login sessions.
func SweepSessions(s SessionSweeper) Task {
	return func(ctx context.Context) error {
		n, err := s.SweepSessions(ctx)
		metrics.RecordGC("sessions", err)
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}
		if n > 0 {
			logging.Info().Int("removed", n).Msg("expired sessions removed")
		}
		return nil
	}
}

// Cleaner drops idle entries from an in-memory table.
type Cleaner interface {
	Cleanup() int
}

// CleanupLimiter forgets clients the rate limiter has not seen for a while.
func CleanupLimiter(c Cleaner) Task {
	return func(context.Context) error {
		n := c.Cleanup()
		metrics.RecordGC("ratelimit", nil)
		if n > 0 {
			log := logging.Logger()
			log.Debug().Int("removed", n).Msg("idle rate limiter entries removed")
		}
		return nil
	}
}
