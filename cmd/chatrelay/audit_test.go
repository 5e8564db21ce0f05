package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/cli"
)

func resetAuditFlags(t *testing.T) {
	t.Helper()
	saved := auditFlags
	t.Cleanup(func() { auditFlags = saved })
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid", in: "2026-01-19T00:00:00Z/2026-01-20T00:00:00Z"},
		{name: "no separator", in: "2026-01-19T00:00:00Z", wantErr: true},
		{name: "bad start", in: "yesterday/2026-01-20T00:00:00Z", wantErr: true},
		{name: "bad end", in: "2026-01-19T00:00:00Z/now", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseTimeRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimeRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if cli.ExitCode(err) != cli.ExitUsage {
					t.Errorf("expected usage error, got %v", err)
				}
				return
			}
			if end.Sub(start) != 24*time.Hour {
				t.Errorf("unexpected range %v - %v", start, end)
			}
		})
	}
}

func TestBuildAuditQuery(t *testing.T) {
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

	t.Run("since", func(t *testing.T) {
		resetAuditFlags(t)
		auditFlags.since = 2 * time.Hour
		auditFlags.outcome = audit.OutcomeError
		auditFlags.provider = "openai"

		q, err := buildAuditQuery(now)
		if err != nil {
			t.Fatal(err)
		}
		if q.StartTime == nil || !q.StartTime.Equal(now.Add(-2*time.Hour)) || q.EndTime != nil {
			t.Errorf("unexpected time bounds %v %v", q.StartTime, q.EndTime)
		}
		if q.Outcome != audit.OutcomeError || q.Provider != "openai" {
			t.Errorf("unexpected filters %+v", q)
		}
	})

	t.Run("since and range conflict", func(t *testing.T) {
		resetAuditFlags(t)
		auditFlags.since = time.Hour
		auditFlags.timeRange = "2026-01-19T00:00:00Z/2026-01-20T00:00:00Z"

		if _, err := buildAuditQuery(now); cli.ExitCode(err) != cli.ExitUsage {
			t.Errorf("expected usage error, got %v", err)
		}
	})
}

func sampleRecords() []*audit.Record {
	return []*audit.Record{
		{
			ID:          "a",
			RequestID:   "req-1",
			RequestTime: time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
			Provider:    "openai",
			Model:       "gpt-4o",
			Outcome:     audit.OutcomeDone,
			Status:      200,
			Frames:      12,
			Duration:    1500 * time.Millisecond,
		},
		{
			ID:          "b",
			RequestID:   "req-2",
			RequestTime: time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC),
			Provider:    "deepseek",
			Model:       "deepseek-chat",
			Outcome:     audit.OutcomeError,
			Status:      200,
			Frames:      2,
			Error:       strings.Repeat("x", 100),
		},
	}
}

func TestWriteRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("table", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := writeRecords(ctx, buf, cli.FormatTable, sampleRecords()); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[0], "TIME") || !strings.Contains(lines[1], "req-1") || !strings.Contains(lines[1], "1.5s") {
			t.Errorf("unexpected table:\n%s", buf.String())
		}
		if !strings.HasSuffix(lines[2], "...") {
			t.Errorf("expected long error to be truncated: %q", lines[2])
		}
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := writeRecords(ctx, buf, cli.FormatJSON, sampleRecords()); err != nil {
			t.Fatal(err)
		}
		var out []audit.Record
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(out) != 2 || out[1].Provider != "deepseek" {
			t.Errorf("unexpected records %+v", out)
		}
	})

	t.Run("csv", func(t *testing.T) {
		buf := &bytes.Buffer{}
		if err := writeRecords(ctx, buf, cli.FormatCSV, sampleRecords()); err != nil {
			t.Fatal(err)
		}
		if n := strings.Count(buf.String(), "\n"); n != 3 {
			t.Errorf("expected 3 CSV lines, got %d:\n%s", n, buf.String())
		}
	})
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Errorf("truncateCell() = %q", got)
	}
	if got := truncateCell("line one\nline two", 100); got != "line one line two" {
		t.Errorf("truncateCell() = %q", got)
	}
	if got := truncateCell("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncateCell() = %q", got)
	}
}
