package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/trace"
)

type stubRollupper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRollupper) Rollup(context.Context) (domain.PortfolioMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return domain.PortfolioMetrics{BlockHeight: int64(s.calls), RollupHash: "0xabc"}, s.err
}

func (s *stubRollupper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewRollupJobRejectsBadSchedule(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	if _, err := NewRollupJob(tracer, &stubRollupper{}, "every tuesday"); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestNewRollupJobDefaultSchedule(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	j, err := NewRollupJob(tracer, &stubRollupper{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.schedule != DefaultRollupSchedule {
		t.Fatalf("expected default schedule, got %q", j.schedule)
	}
}

func TestRollupJobRunsOnSchedule(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubRollupper{}
	j, err := NewRollupJob(tracer, stub, "@every 1s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for stub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	<-done
	if stub.count() == 0 {
		t.Fatal("expected at least one rollup")
	}
}

func TestRunOnceToleratesErrors(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	for _, err := range []error{session.ErrNotAuthenticated, errors.New("boom")} {
		stub := &stubRollupper{err: err}
		j, _ := NewRollupJob(tracer, stub, "")
		j.runOnce(context.Background())
		if stub.count() != 1 {
			t.Fatalf("expected one call, got %d", stub.count())
		}
	}
}
