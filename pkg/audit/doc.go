// Package audit defines the per-request audit log of the chat relay.
//
// Every POST /api/chat produces one Record describing how the request was
// routed and how it ended: provider, model, upstream host, frames sent,
// outcome and latencies. Records never contain message text, attachment
// content or credentials; the relay keeps no conversation history.
//
// # Components
//
//   - recorder: asynchronous writer with a bounded queue, so a slow
//     backend never delays a stream.
//   - storage: Storage implementations (memory, sqlite).
//   - retention: age and count based pruning on a cron schedule.
//   - query: validation and defaults for Query values.
//   - export: JSON and CSV writers used by "chatrelay audit list".
//
// # Usage
//
//	store, err := storage.New(cfg.Audit)
//	rec := recorder.New(store, cfg.Audit.Recorder)
//	defer rec.Close()
//
//	rec.Record(ctx, &audit.Record{RequestID: id, Outcome: audit.OutcomeDone})
package audit
