package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

// Recorder queues audit records and writes them in the background.
type Recorder struct {
	storage    audit.Storage
	config     config.AuditRecorderConfig
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// New creates a recorder writing to storage and starts its worker.
func New(storage audit.Storage, cfg config.AuditRecorderConfig) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultAuditRecorderAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultAuditRecorderWriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *audit.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("audit recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record assigns an ID and recorded time if missing and queues the record.
// It does not wait for the storage write.
func (r *Recorder) Record(ctx context.Context, record *audit.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedTime.IsZero() {
		record.RecordedTime = time.Now()
	}

	select {
	case <-r.done:
		return audit.NewRecorderError(record.ID, context.Canceled)
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		return nil
	case <-timer.C:
		r.logger.ErrorContext(ctx, "audit channel full, dropping record",
			"record_id", record.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.WarnContext(ctx, "recorder shutting down, dropping record",
			"record_id", record.ID,
		)
		return audit.NewRecorderError(record.ID, context.Canceled)
	}
}

// Close stops accepting records, writes what is queued and waits for the
// worker to exit. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Debug("audit recorder shut down")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
