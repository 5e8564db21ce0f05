package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/audit/storage"
	"mercator-hq/chatrelay/pkg/config"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "daily", schedule: "0 3 * * *", wantRunning: true},
		{name: "hourly", schedule: "0 * * * *", wantRunning: true},
		{name: "empty schedule", schedule: ""},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pruner := NewPruner(storage.NewMemoryStorage(), config.AuditRetentionConfig{
				Days:     30,
				Schedule: tt.schedule,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := pruner.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			defer pruner.Stop()

			if pruner.scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", pruner.scheduler.IsRunning(), tt.wantRunning)
			}

			next := pruner.NextPruning()
			if tt.wantRunning {
				if next == nil || !next.After(time.Now()) {
					t.Errorf("NextPruning() = %v, want a future time", next)
				}
			} else if next != nil {
				t.Errorf("NextPruning() = %v, want nil", next)
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), config.AuditRetentionConfig{Schedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_StopIdempotent(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), config.AuditRetentionConfig{Schedule: "0 3 * * *"})
	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	pruner.Stop()
	pruner.Stop()

	if pruner.scheduler.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}
