package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/finance-api/internal/observability"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

// SweepStore is a TTL store whose expired entries can be purged.
type SweepStore interface {
	Sweep() int
	Len() int
}

// TokenSweeper periodically purges expired entries from the revocation and
// active-token stores. Reads already ignore expired entries; sweeping only
// bounds memory.
type TokenSweeper struct {
	stores   map[string]SweepStore
	interval time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTokenSweeper builds a sweeper over the named stores.
func NewTokenSweeper(stores map[string]SweepStore, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *TokenSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenSweeper{
		stores:   stores,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("token sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce purges every store once and returns the removed count per store.
func (s *TokenSweeper) SweepOnce() map[string]int {
	removed := make(map[string]int, len(s.stores))
	for name, store := range s.stores {
		n := store.Sweep()
		remaining := store.Len()
		removed[name] = n
		s.metrics.RecordSweep(name, n, remaining)
		if n > 0 {
			s.logger.Debug("swept expired entries",
				zap.String("store", name),
				zap.Int("removed", n),
				zap.Int("remaining", remaining))
		}
	}
	return removed
}
