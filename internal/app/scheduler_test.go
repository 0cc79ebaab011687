package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

func TestScheduler_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	scheduler, err := NewScheduler("0 7 * * *", time.UTC, func(runCtx context.Context) {
		runs.Add(1)
		if runCtx.Err() != nil {
			t.Errorf("first run received a cancelled context")
		}
		cancel()
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected exactly one immediate run, got %d", got)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewScheduler("every morning", time.UTC, func(context.Context) {}, nil); err == nil {
		t.Fatalf("expected invalid cron spec to fail")
	}
}
