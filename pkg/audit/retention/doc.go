// Package retention prunes old audit records.
//
// Two rules apply, each only when configured:
//   - age: records older than audit.retention.days are deleted.
//   - count: when more than audit.retention.max_records remain, the oldest
//     are deleted.
//
// Prune runs both once. Start schedules Prune with a standard five-field
// cron expression (audit.retention.schedule, "0 3 * * *" by default):
//
//	pruner := retention.NewPruner(store, cfg.Audit.Retention)
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention
