package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

// Pruner enforces retention on audit records.
type Pruner struct {
	storage   audit.Storage
	config    config.AuditRetentionConfig
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner for storage.
func NewPruner(storage audit.Storage, cfg config.AuditRetentionConfig) *Pruner {
	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "audit.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes records older than the retention period, then the oldest
// records beyond the max record count. It returns the total deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
	}

	if totalDeleted > 0 {
		p.logger.Info("audit pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no audit records pruned")
	}

	return totalDeleted, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}
	return deleted, nil
}

// pruneByCount deletes everything up to the request time of the newest
// record that falls outside the cap. Records sharing that timestamp go too.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	excess := count - p.config.MaxRecords
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := p.storage.Query(ctx, &audit.Query{
		Limit:     int(excess),
		SortBy:    "request_time",
		SortOrder: "asc",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].RequestTime
	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start starts scheduled pruning. It is a no-op without a schedule.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled prune, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
