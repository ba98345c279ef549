package service

import (
	"context"
	"log"

	"auratrade/internal/domain"
	"auratrade/internal/repository"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/trace"
)

// SimulationRunner is the periodic market simulation, gated by login.
type SimulationRunner interface {
	SetAuthenticated(authenticated bool)
}

type SessionFlagStore interface {
	Load(ctx context.Context) (repository.SessionFlags, error)
	Save(ctx context.Context, remember bool) (repository.SessionFlags, error)
	ClearMarker(ctx context.Context) error
}

// SessionService owns the login gate and tears down everything tied to a
// session when it ends.
type SessionService struct {
	tracer trace.Tracer
	store  *session.Store
	sched  Scheduler
	gate   *ConfirmationGate
	ledger *LedgerService
	runner SimulationRunner
	flags  SessionFlagStore
}

func NewSessionService(
	tracer trace.Tracer,
	store *session.Store,
	sched Scheduler,
	gate *ConfirmationGate,
	ledger *LedgerService,
	runner SimulationRunner,
	flags SessionFlagStore,
) *SessionService {
	return &SessionService{
		tracer: tracer,
		store:  store,
		sched:  sched,
		gate:   gate,
		ledger: ledger,
		runner: runner,
		flags:  flags,
	}
}

// Login authenticates the session and starts the simulation. Logging in
// twice is a no-op.
func (s *SessionService) Login(ctx context.Context, remember bool) (session.State, error) {
	ctx, span := s.tracer.Start(ctx, "session-service.login")
	defer span.End()

	if s.store.Snapshot().Authenticated {
		return s.store.Snapshot(), nil
	}

	s.store.SetAuthenticated(true)
	s.store.Update(func(tx *session.Tx) {
		tx.Audit("Biometric handshake verified. Session established.", domain.SeverityLow)
	})
	if s.runner != nil {
		s.runner.SetAuthenticated(true)
	}

	if s.flags != nil {
		if _, err := s.flags.Save(ctx, remember); err != nil {
			log.Printf("Warning: failed to persist session flags: %v", err)
		}
	}
	return s.store.Snapshot(), nil
}

// Logout ends the session. Periodic ticks and delayed stages scheduled
// under it never run afterwards, and transfers still in flight are failed.
func (s *SessionService) Logout(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session-service.logout")
	defer span.End()

	if !s.store.Snapshot().Authenticated {
		return nil
	}

	if s.runner != nil {
		s.runner.SetAuthenticated(false)
	}
	s.sched.CancelAll()
	s.gate.Cancel()
	s.store.SetAuthenticated(false)
	if n := s.ledger.AbortInFlight(); n > 0 {
		log.Printf("session ended with %d transfers in flight; marked failed", n)
	}

	if s.flags != nil {
		if err := s.flags.ClearMarker(ctx); err != nil {
			log.Printf("Warning: failed to clear session marker: %v", err)
		}
	}
	return nil
}

// Restore logs in automatically when a previous session asked to be
// remembered and left its marker behind.
func (s *SessionService) Restore(ctx context.Context) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "session-service.restore")
	defer span.End()

	if s.flags == nil {
		return false, nil
	}
	flags, err := s.flags.Load(ctx)
	if err != nil {
		return false, err
	}
	if !flags.RememberDevice || flags.Marker == "" {
		return false, nil
	}
	if _, err := s.Login(ctx, true); err != nil {
		return false, err
	}
	return true, nil
}
