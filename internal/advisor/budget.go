package advisor

import (
	"errors"
	"sync"
	"time"
)

var errBudgetExhausted = errors.New("llm call budget exhausted")

// callBudget is a token bucket over outbound completions. A request that
// finds it empty is refused immediately so the panel shows its fallback
// instead of stalling behind the limit.
type callBudget struct {
	mu         sync.Mutex
	now        func() time.Time
	tokens     int
	max        int
	interval   time.Duration
	lastRefill time.Time
}

func newCallBudget(max int, per time.Duration, now func() time.Time) *callBudget {
	return &callBudget{
		now:        now,
		tokens:     max,
		max:        max,
		interval:   per / time.Duration(max),
		lastRefill: now(),
	}
}

func (b *callBudget) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := int(b.now().Sub(b.lastRefill) / b.interval); n > 0 {
		b.tokens = min(b.tokens+n, b.max)
		b.lastRefill = b.lastRefill.Add(time.Duration(n) * b.interval)
	}
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// LimitCalls caps backend completions at max per window. Cache hits are
// not counted. max <= 0 removes the cap.
func (s *Service) LimitCalls(max int, per time.Duration) {
	if max <= 0 || per <= 0 {
		s.budget = nil
		return
	}
	s.budget = newCallBudget(max, per, time.Now)
}
