package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
)

func sampleRecords() []*audit.Record {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*audit.Record{
		{
			ID: "a", RequestID: "req-a", RequestTime: at, Provider: "openai", Model: "gpt-4o",
			Stream: true, Turns: 3, Outcome: audit.OutcomeDone, Status: 200, Frames: 5,
			FirstDeltaLatency: 250 * time.Millisecond, Duration: 2 * time.Second,
		},
		{
			ID: "b", RequestID: "req-b", RequestTime: at, Outcome: audit.OutcomeRejected, Status: 500,
			Error: "API key not configured, please check settings", ErrorType: "missing_credential",
		},
	}
}

func TestJSONExporter(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		if err := NewJSONExporter(pretty).Export(context.Background(), sampleRecords(), &buf); err != nil {
			t.Fatalf("Export(pretty=%v): %v", pretty, err)
		}

		var got []audit.Record
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 || got[0].ID != "a" || got[1].Outcome != audit.OutcomeRejected {
			t.Errorf("decoded = %+v", got)
		}
		if got[0].Duration != 2*time.Second {
			t.Errorf("Duration = %v, want 2s", got[0].Duration)
		}
	}
}

func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("got %q, want []", buf.String())
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sampleRecords(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %q", name)
		return -1
	}

	if got := rows[1][col("duration_ms")]; got != "2000" {
		t.Errorf("duration_ms = %q, want 2000", got)
	}
	if got := rows[1][col("first_delta_ms")]; got != "250" {
		t.Errorf("first_delta_ms = %q, want 250", got)
	}
	if got := rows[1][col("request_time")]; got != "2026-03-01T12:00:00Z" {
		t.Errorf("request_time = %q", got)
	}
	if got := rows[2][col("error")]; got != "API key not configured, please check settings" {
		t.Errorf("error column = %q", got)
	}
	if got := rows[2][col("recorded_time")]; got != "" {
		t.Errorf("zero recorded_time should be empty, got %q", got)
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), sampleRecords()[:1], &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("header should be omitted")
	}
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("got %d lines, want 1", n)
	}
}

func TestExporters_ImplementInterface(t *testing.T) {
	var _ audit.Exporter = NewJSONExporter(false)
	var _ audit.Exporter = NewCSVExporter(true)
}
