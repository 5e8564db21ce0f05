package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
)

// CSVExporter exports audit records to CSV.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes records to w, one row each.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for i, record := range records {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return audit.NewExportError("csv", len(records), err)
			}
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}
	return nil
}

func headerRow() []string {
	return []string{
		"id", "request_id", "request_time", "recorded_time",
		"remote_addr", "user_agent",
		"provider", "model", "endpoint_host", "stream",
		"turns", "history", "attachment_chars", "truncated",
		"outcome", "status", "frames", "error", "error_type",
		"first_delta_ms", "duration_ms",
	}
}

func recordToRow(record *audit.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.RequestID,
		formatTime(record.RequestTime),
		formatTime(record.RecordedTime),
		record.RemoteAddr,
		record.UserAgent,
		record.Provider,
		record.Model,
		record.EndpointHost,
		strconv.FormatBool(record.Stream),
		strconv.Itoa(record.Turns),
		strconv.FormatBool(record.History),
		strconv.Itoa(record.AttachmentChars),
		strconv.FormatBool(record.Truncated),
		record.Outcome,
		strconv.Itoa(record.Status),
		strconv.Itoa(record.Frames),
		record.Error,
		record.ErrorType,
		strconv.FormatInt(record.FirstDeltaLatency.Milliseconds(), 10),
		strconv.FormatInt(record.Duration.Milliseconds(), 10),
	}
}
