package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type stubRunner struct {
	calls []bool
}

func (r *stubRunner) SetAuthenticated(v bool) { r.calls = append(r.calls, v) }

type stubFlags struct {
	flags    repository.SessionFlags
	loadErr  error
	saveErr  error
	saved    []bool
	cleared int
}

func (s *stubFlags) Load(context.Context) (repository.SessionFlags, error) {
	return s.flags, s.loadErr
}

func (s *stubFlags) Save(_ context.Context, remember bool) (repository.SessionFlags, error) {
	s.saved = append(s.saved, remember)
	if s.saveErr != nil {
		return repository.SessionFlags{}, s.saveErr
	}
	s.flags = repository.SessionFlags{RememberDevice: s.flags.RememberDevice || remember, Marker: "active_x"}
	return s.flags, nil
}

func (s *stubFlags) ClearMarker(context.Context) error {
	s.cleared++
	s.flags.Marker = ""
	return nil
}

func newSessionService(f *fixture, runner SimulationRunner, flags SessionFlagStore) *SessionService {
	return NewSessionService(trace.NewNoopTracerProvider().Tracer("test"), f.store, f.sched, f.gate, f.ledger, runner, flags)
}

func TestLoginStartsSimulation(t *testing.T) {
	f := newFixture(t, nil)
	f.store.SetAuthenticated(false)
	runner := &stubRunner{}
	flags := &stubFlags{}
	svc := newSessionService(f, runner, flags)

	st, err := svc.Login(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, []bool{true}, runner.calls)
	assert.Equal(t, []bool{true}, flags.saved)

	_, err = svc.Login(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, runner.calls)
}

func TestLoginToleratesFlagFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.store.SetAuthenticated(false)
	svc := newSessionService(f, nil, &stubFlags{saveErr: errors.New("redis down")})

	st, err := svc.Login(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
}

func TestLogoutTearsDownSession(t *testing.T) {
	f := newFixture(t, withAvailable(1000))
	runner := &stubRunner{}
	flags := &stubFlags{flags: repository.SessionFlags{RememberDevice: true, Marker: "active_x"}}
	svc := newSessionService(f, runner, flags)
	ctx := context.Background()

	require.NoError(t, f.ledger.Withdraw(ctx, 400, "0xabc"))
	require.NoError(t, f.ledger.RequestSystemReset(ctx))
	gen := f.store.Generation()

	require.NoError(t, svc.Logout(ctx))

	st := f.state()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.Confirmation)
	assert.Nil(t, f.gate.Pending())
	assert.NotEqual(t, gen, f.store.Generation())
	assert.Equal(t, []bool{false}, runner.calls)
	assert.Zero(t, f.sched.Pending())
	assert.Equal(t, 1, flags.cleared)
	assert.Equal(t, domain.TxFailed, st.Transactions[0].Status)
	assert.Equal(t, 1000.0, st.Wallet.Available)
	assert.Equal(t, 0.0, st.Wallet.Pending)

	f.sched.Advance(time.Minute)
	assert.Equal(t, st.Transactions, f.state().Transactions)

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, []bool{false}, runner.calls)
}

func TestRestore(t *testing.T) {
	cases := []struct {
		name  string
		flags repository.SessionFlags
		want  bool
	}{
		{"remembered", repository.SessionFlags{RememberDevice: true, Marker: "active_x"}, true},
		{"no marker", repository.SessionFlags{RememberDevice: true}, false},
		{"not remembered", repository.SessionFlags{Marker: "active_x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.store.SetAuthenticated(false)
			svc := newSessionService(f, nil, &stubFlags{flags: tc.flags})

			ok, err := svc.Restore(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.Equal(t, tc.want, f.state().Authenticated)
		})
	}
}

func TestRestoreWithoutFlagStore(t *testing.T) {
	f := newFixture(t, nil)
	ok, err := newSessionService(f, nil, nil).Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
