package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/audit/storage"
	"mercator-hq/chatrelay/pkg/config"
)

func storeAged(t *testing.T, s audit.Storage, ages ...int) {
	t.Helper()
	now := time.Now()
	for i, days := range ages {
		err := s.Store(context.Background(), &audit.Record{
			ID:          fmt.Sprintf("rec-%d", i),
			RequestID:   fmt.Sprintf("req-%d", i),
			RequestTime: now.AddDate(0, 0, -days).Add(-time.Duration(i) * time.Second),
			Outcome:     audit.OutcomeDone,
		})
		if err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.AuditRetentionConfig
		ages        []int
		wantDeleted int64
		wantLeft    int64
	}{
		{
			name:        "by age",
			cfg:         config.AuditRetentionConfig{Days: 7},
			ages:        []int{10, 8, 5, 3},
			wantDeleted: 2,
			wantLeft:    2,
		},
		{
			name:        "retention disabled",
			cfg:         config.AuditRetentionConfig{},
			ages:        []int{100, 1},
			wantDeleted: 0,
			wantLeft:    2,
		},
		{
			name:        "by count",
			cfg:         config.AuditRetentionConfig{MaxRecords: 3},
			ages:        []int{1, 2, 3, 4, 5},
			wantDeleted: 2,
			wantLeft:    3,
		},
		{
			name:        "count within limit",
			cfg:         config.AuditRetentionConfig{MaxRecords: 10},
			ages:        []int{1, 2},
			wantDeleted: 0,
			wantLeft:    2,
		},
		{
			name:        "age then count",
			cfg:         config.AuditRetentionConfig{Days: 30, MaxRecords: 2},
			ages:        []int{60, 45, 3, 2, 1},
			wantDeleted: 3,
			wantLeft:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			storeAged(t, store, tt.ages...)

			deleted, err := NewPruner(store, tt.cfg).Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}

			left, _ := store.Count(context.Background(), &audit.Query{})
			if left != tt.wantLeft {
				t.Errorf("remaining = %d, want %d", left, tt.wantLeft)
			}
		})
	}
}

func TestPruner_ByCountKeepsNewest(t *testing.T) {
	store := storage.NewMemoryStorage()
	storeAged(t, store, 5, 4, 3, 2, 1)

	if _, err := NewPruner(store, config.AuditRetentionConfig{MaxRecords: 2}).Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	records, _ := store.Query(context.Background(), &audit.Query{})
	got := map[string]bool{}
	for _, r := range records {
		got[r.ID] = true
	}
	if !got["rec-3"] || !got["rec-4"] || len(got) != 2 {
		t.Errorf("remaining = %v, want rec-3 and rec-4", got)
	}
}
