// Package worker runs background maintenance for the session stores.
package worker

import (
	"context"
	"time"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/metrics"
)

// ExpiredDeleter removes refresh records that expired before a cutoff.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Pruner periodically deletes refresh records whose expiry lies further in the
// past than the retention window. Retention keeps recently expired records
// around so rotation chains stay inspectable for a while.
type Pruner struct {
	store     ExpiredDeleter
	interval  time.Duration
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewPruner(store ExpiredDeleter, interval, retention time.Duration, m *metrics.Metrics, logger *logger.Logger) *Pruner {
	return &Pruner{
		store:     store,
		interval:  interval,
		retention: retention,
		timeout:   30 * time.Second,
		now:       time.Now,
		metrics:   m,
		logger:    logger,
	}
}

// Run prunes once immediately and then on every tick until ctx is done.
// A non-positive interval disables the loop.
func (p *Pruner) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("Pruner: disabled")
		return
	}

	p.PruneOnce(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce runs a single deletion pass and returns the number of removed records.
func (p *Pruner) PruneOnce(ctx context.Context) int64 {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cutoff := p.now().Add(-p.retention)
	n, err := p.store.DeleteExpired(runCtx, cutoff)
	if err != nil {
		p.logger.Error("Pruner: failed to delete expired refresh records",
			"cutoff", cutoff,
			"error", err.Error())
		return 0
	}

	p.metrics.Pruned(n)
	if n > 0 {
		p.logger.Info("Pruner: deleted expired refresh records",
			"count", n,
			"cutoff", cutoff)
	}
	return n
}
