package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/observability/metrics"
)

// StatsWorker periodically probes the backend and refreshes the stored-item
// gauges. Nothing here mutates data: items are never expired or archived.
type StatsWorker struct {
	backend  domain.Backend
	logger   *slog.Logger
	interval time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(backend domain.Backend, logger *slog.Logger, interval time.Duration) *StatsWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatsWorker{
		backend:  backend,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the stats loop. Blocks until ctx is cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	w.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.collect(ctx)
		}
	}
}

func (w *StatsWorker) collect(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := w.backend.Ping(probeCtx); err != nil {
		metrics.SetBackendUp(false)
		w.logger.Warn("backend ping failed", slog.String("error", err.Error()))
		return
	}
	metrics.SetBackendUp(true)

	scopes, err := w.backend.Scopes(probeCtx)
	if err != nil {
		w.logger.Warn("failed to list tenant scopes", slog.String("error", err.Error()))
		return
	}
	metrics.SetTenantScopes(len(scopes))

	total := 0
	for _, scope := range scopes {
		items, err := w.backend.Read(probeCtx, scope)
		if err != nil {
			w.logger.Warn("failed to read scope",
				slog.String("tenant_id", scope),
				slog.String("error", err.Error()),
			)
			continue
		}
		total += len(items)
	}
	metrics.SetStoredItems(total)

	w.logger.Debug("stats collected",
		slog.Int("tenant_scopes", len(scopes)),
		slog.Int("stored_items", total),
	)
}
