package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

// backends returns a fresh instance of every storage backend.
func backends(t *testing.T) map[string]audit.Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(config.AuditSQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		Driver:      config.SQLiteDriverPure,
		WALMode:     true,
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}

	stores := map[string]audit.Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func testRecord(i int, base time.Time) *audit.Record {
	providers := []string{"openai", "anthropic"}
	outcomes := []string{audit.OutcomeDone, audit.OutcomeError, audit.OutcomeRejected}
	return &audit.Record{
		ID:                fmt.Sprintf("rec-%02d", i),
		RequestID:         fmt.Sprintf("req-%02d", i),
		RequestTime:       base.Add(time.Duration(i) * time.Minute),
		RecordedTime:      base.Add(time.Duration(i)*time.Minute + time.Second),
		RemoteAddr:        "127.0.0.1:5000",
		UserAgent:         "test",
		Provider:          providers[i%2],
		Model:             "gpt-4o",
		EndpointHost:      "api.openai.com",
		Stream:            true,
		Turns:             2,
		History:           i%2 == 0,
		AttachmentChars:   i * 10,
		Truncated:         i == 3,
		Outcome:           outcomes[i%3],
		Status:            200,
		Frames:            i + 1,
		FirstDeltaLatency: time.Duration(i) * time.Millisecond,
		Duration:          time.Duration(10-i) * time.Second,
	}
}

func seed(t *testing.T, s audit.Storage, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Store(context.Background(), testRecord(i, base)); err != nil {
			t.Fatalf("Store(%d): %v", i, err)
		}
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := testRecord(3, base)
			want.Error = "Stream error: boom"
			want.ErrorType = "upstream"
			if err := s.Store(context.Background(), want); err != nil {
				t.Fatalf("Store: %v", err)
			}

			got, err := s.Query(context.Background(), &audit.Query{RequestID: want.RequestID})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("got %d records, want 1", len(got))
			}
			r := got[0]

			if !r.RequestTime.Equal(want.RequestTime) || !r.RecordedTime.Equal(want.RecordedTime) {
				t.Errorf("times = %v/%v, want %v/%v", r.RequestTime, r.RecordedTime, want.RequestTime, want.RecordedTime)
			}
			r.RequestTime, r.RecordedTime = want.RequestTime, want.RecordedTime
			if *r != *want {
				t.Errorf("record mismatch:\n got  %+v\n want %+v", *r, *want)
			}
		})
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(4 * time.Minute)

	tests := []struct {
		name  string
		query audit.Query
		want  int64
	}{
		{"all", audit.Query{}, 10},
		{"provider", audit.Query{Provider: "openai"}, 5},
		{"outcome", audit.Query{Outcome: audit.OutcomeDone}, 4},
		{"provider and outcome", audit.Query{Provider: "anthropic", Outcome: audit.OutcomeError}, 2},
		{"end time inclusive", audit.Query{EndTime: &cutoff}, 5},
		{"start time inclusive", audit.Query{StartTime: &cutoff}, 6},
		{"unknown model", audit.Query{Model: "nope"}, 0},
	}

	for name, s := range backends(t) {
		seed(t, s, 10, base)

		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				count, err := s.Count(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Count: %v", err)
				}
				if count != tt.want {
					t.Errorf("Count() = %d, want %d", count, tt.want)
				}

				q := tt.query
				q.Limit = 100
				records, err := s.Query(context.Background(), &q)
				if err != nil {
					t.Fatalf("Query: %v", err)
				}
				if int64(len(records)) != tt.want {
					t.Errorf("Query() returned %d, want %d", len(records), tt.want)
				}
			})
		}
	}
}

func TestStorage_SortAndPaginate(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query audit.Query
		want  []string
	}{
		{"default newest first", audit.Query{Limit: 3}, []string{"rec-09", "rec-08", "rec-07"}},
		{"ascending", audit.Query{Limit: 2, SortOrder: "asc"}, []string{"rec-00", "rec-01"}},
		{"offset", audit.Query{Limit: 2, Offset: 8}, []string{"rec-01", "rec-00"}},
		{"by duration", audit.Query{Limit: 2, SortBy: "duration"}, []string{"rec-00", "rec-01"}},
		{"offset past end", audit.Query{Limit: 5, Offset: 50}, nil},
	}

	for name, s := range backends(t) {
		seed(t, s, 10, base)

		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				records, err := s.Query(context.Background(), &tt.query)
				if err != nil {
					t.Fatalf("Query: %v", err)
				}
				var ids []string
				for _, r := range records {
					ids = append(ids, r.ID)
				}
				if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
					t.Errorf("ids = %v, want %v", ids, tt.want)
				}
			})
		}
	}
}

func TestStorage_Delete(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(2 * time.Minute)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s, 10, base)

			deleted, err := s.Delete(context.Background(), &audit.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if deleted != 3 {
				t.Errorf("deleted = %d, want 3", deleted)
			}

			count, _ := s.Count(context.Background(), &audit.Query{})
			if count != 7 {
				t.Errorf("remaining = %d, want 7", count)
			}
		})
	}
}

func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	rec := testRecord(1, time.Now())
	if err := s.Store(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	rec.Provider = "mutated"

	got, _ := s.Query(context.Background(), &audit.Query{})
	if got[0].Provider == "mutated" {
		t.Error("stored record should not alias the caller's value")
	}
	got[0].Model = "mutated"

	again, _ := s.Query(context.Background(), &audit.Query{})
	if again[0].Model == "mutated" {
		t.Error("returned record should not alias the stored value")
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	cfg := config.AuditSQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "nested", "audit.db"),
		Driver:      config.SQLiteDriverPure,
		BusyTimeout: time.Second,
	}

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	seed(t, s, 2, time.Now())
	s.Close()

	s, err = NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	count, err := s.Count(context.Background(), &audit.Query{})
	if err != nil || count != 2 {
		t.Errorf("Count() = %d, %v; want 2", count, err)
	}
}

func TestSQLiteStorage_CGODriver(t *testing.T) {
	s, err := NewSQLiteStorage(config.AuditSQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		Driver:      config.SQLiteDriverCGO,
		WALMode:     true,
		BusyTimeout: time.Second,
	})
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("go-sqlite3 requires cgo")
		}
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	defer s.Close()

	seed(t, s, 3, time.Now())
	count, err := s.Count(context.Background(), &audit.Query{})
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v; want 3", count, err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AuditSQLiteConfig
		want    []string
		wantErr bool
	}{
		{
			name: "pure go driver",
			cfg:  config.AuditSQLiteConfig{Path: "a.db", Driver: config.SQLiteDriverPure, WALMode: true, BusyTimeout: 5 * time.Second},
			want: []string{"file:a.db?", "busy_timeout%285000%29", "journal_mode%28WAL%29"},
		},
		{
			name: "cgo driver",
			cfg:  config.AuditSQLiteConfig{Path: "a.db", Driver: config.SQLiteDriverCGO, WALMode: true, BusyTimeout: 5 * time.Second},
			want: []string{"file:a.db?", "_busy_timeout=5000", "_journal_mode=WAL"},
		},
		{
			name:    "unknown driver",
			cfg:     config.AuditSQLiteConfig{Path: "a.db", Driver: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := sqliteDSN(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sqliteDSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, part := range tt.want {
				if !strings.Contains(dsn, part) {
					t.Errorf("dsn %q missing %q", dsn, part)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := New(config.AuditConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("expected *MemoryStorage, got %T", s)
	}

	s, err = New(config.AuditConfig{Backend: "sqlite", SQLite: config.AuditSQLiteConfig{
		Path: filepath.Join(t.TempDir(), "audit.db"),
	}})
	if err != nil {
		t.Fatalf("New(sqlite): %v", err)
	}
	s.Close()

	if _, err := New(config.AuditConfig{Backend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	_, err = NewSQLiteStorage(config.AuditSQLiteConfig{})
	var storageErr *audit.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected *audit.StorageError for empty path, got %v", err)
	}
}
