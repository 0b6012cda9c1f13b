package core

// scheduler.go runs periodic maintenance:
//  1. Prune audit entries older than the retention window
//  2. Drop expired census cache entries
//
// Failures are logged and retried on the next tick; they never stop the
// server.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/audit"
)

// MaintenanceConfig controls StartMaintenance.
type MaintenanceConfig struct {
	Interval       time.Duration // How often to run (default: 1h)
	AuditRetention time.Duration // Entries older than this are pruned; 0 keeps all
}

// cachePurger is implemented by census.CachingSource.
type cachePurger interface {
	Purge() int
}

// MaintenanceResult reports one maintenance run.
type MaintenanceResult struct {
	AuditPruned  int64
	CachePurged  int
	AuditSkipped bool
}

// StartMaintenance runs maintenance immediately and then every
// cfg.Interval until ctx is cancelled.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	slog.Info("maintenance scheduler started",
		"interval", cfg.Interval,
		"audit_retention", cfg.AuditRetention,
	)

	s.runMaintenance(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.runMaintenance(ctx, cfg)
		}
	}
}

func (s *Service) runMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	start := time.Now()
	res, err := s.Maintain(ctx, cfg.AuditRetention)
	if err != nil {
		slog.Error("maintenance failed", "error", err)
	}
	slog.Info("maintenance completed",
		"audit_pruned", res.AuditPruned,
		"cache_purged", res.CachePurged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Maintain performs one maintenance pass. The cache is purged even when
// pruning the audit log fails.
func (s *Service) Maintain(ctx context.Context, retention time.Duration) (MaintenanceResult, error) {
	var (
		res MaintenanceResult
		err error
	)

	if p, ok := s.audit.(audit.Pruner); ok && retention > 0 {
		res.AuditPruned, err = p.Prune(ctx, time.Now().Add(-retention))
	} else {
		res.AuditSkipped = true
	}

	if c, ok := s.census.(cachePurger); ok {
		res.CachePurged = c.Purge()
	}

	return res, err
}
