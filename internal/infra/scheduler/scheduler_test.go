//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jdcrawler-dashboard/internal/infra/logging"
)

func TestAddValidates(t *testing.T) {
	s := New(logging.Nop())
	if err := s.Add(Task{Name: "zero", Run: func(context.Context) error { return nil }}); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := s.Add(Task{Name: "nil", Every: time.Second}); err == nil {
		t.Error("expected error for nil run func")
	}
}

func TestStartRunsFirstAndStopIsIdempotent(t *testing.T) {
	s := New(logging.Nop())
	ran := make(chan struct{}, 1)
	var calls int32
	err := s.Add(Task{
		Name:     "crawl_status",
		Every:    time.Hour,
		RunFirst: true,
		Run: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("task context has no deadline")
			}
			if atomic.AddInt32(&calls, 1) == 1 {
				ran <- struct{}{}
			}
			return errors.New("backend down")
		},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.Start(context.Background())
	s.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("RunFirst task did not run")
	}
	s.Stop()
	s.Stop()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestStopBeforeStart(t *testing.T) {
	New(logging.Nop()).Stop()
}
