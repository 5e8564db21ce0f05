package audit

import (
	"context"
	"io"
	"time"
)

// Outcomes of a chat request.
const (
	// OutcomeDone means the stream ended with the done frame only.
	OutcomeDone = "done"

	// OutcomeError means an error frame preceded the done frame.
	OutcomeError = "error"

	// OutcomeRejected means the request failed before any SSE header was sent.
	OutcomeRejected = "rejected"

	// OutcomeDisconnected means the client went away mid-stream.
	OutcomeDisconnected = "disconnected"
)

// ValidOutcome reports whether o is a known outcome.
func ValidOutcome(o string) bool {
	switch o {
	case OutcomeDone, OutcomeError, OutcomeRejected, OutcomeDisconnected:
		return true
	}
	return false
}

// Record describes one chat request.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // X-Request-ID

	// Timestamps
	RequestTime  time.Time `json:"request_time"`  // When the request arrived
	RecordedTime time.Time `json:"recorded_time"` // When the record was written

	// Client
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`

	// Routing
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	EndpointHost string `json:"endpoint_host"`
	Stream       bool   `json:"stream"`

	// Context assembly
	Turns           int  `json:"turns"`            // Messages sent upstream, system prompt included
	History         bool `json:"history"`          // Whether client history was forwarded
	AttachmentChars int  `json:"attachment_chars"` // Characters of inlined file content
	Truncated       bool `json:"truncated"`        // Whether any content was truncated

	// Result
	Outcome   string `json:"outcome"`    // done, error, rejected, disconnected
	Status    int    `json:"status"`     // HTTP status sent to the client
	Frames    int    `json:"frames"`     // SSE frames written
	Error     string `json:"error"`      // Error text, if any
	ErrorType string `json:"error_type"` // Error class, if any

	// Latency
	FirstDeltaLatency time.Duration `json:"first_delta_latency"` // Request start to first text frame
	Duration          time.Duration `json:"duration"`            // Request start to terminal frame
}

// Query defines filter parameters for audit records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	RequestID string `json:"request_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Outcome   string `json:"outcome,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "request_time", "recorded_time", "duration"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the query, sorted and paginated.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns how
	// many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes records in some format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
