package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// ProviderError mirrors the EIP-1193 error shape: a numeric code plus a
// message. Errors compare equal under errors.Is when their codes match.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	return ok && t.Code == e.Code
}

var (
	ErrUserRejected = &ProviderError{Code: 4001, Message: "User rejected the request."}
	ErrUnauthorized = &ProviderError{Code: 4100, Message: "The requested account has not been authorized."}
)

// Provider is the injected wallet capability, e.g. a browser extension.
type Provider interface {
	Detect() bool
	RequestAccounts(ctx context.Context) ([]string, error)
	AuthorizedAccounts(ctx context.Context) ([]string, error)
	SubscribeAccountChange(fn func(accounts []string)) (unsubscribe func())
}

// SimulatedProvider is an in-process Provider. It can be configured absent,
// told to reject the next request, and switched between accounts.
type SimulatedProvider struct {
	mu         sync.Mutex
	present    bool
	accounts   []string
	authorized bool
	failNext   error
	subs       map[int]func([]string)
	nextSub    int
}

func NewSimulatedProvider(present bool, accounts []string) *SimulatedProvider {
	return &SimulatedProvider{
		present:  present,
		accounts: append([]string(nil), accounts...),
		subs:     make(map[int]func([]string)),
	}
}

func (p *SimulatedProvider) Detect() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present
}

func (p *SimulatedProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failNext; err != nil {
		p.failNext = nil
		return nil, err
	}
	if len(p.accounts) == 0 {
		return nil, ErrUnauthorized
	}
	p.authorized = true
	return append([]string(nil), p.accounts...), nil
}

func (p *SimulatedProvider) AuthorizedAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.authorized {
		return nil, nil
	}
	return append([]string(nil), p.accounts...), nil
}

func (p *SimulatedProvider) SubscribeAccountChange(fn func([]string)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Authorize marks the accounts as already approved, as after a previous
// visit.
func (p *SimulatedProvider) Authorize() {
	p.mu.Lock()
	p.authorized = true
	p.mu.Unlock()
}

// RejectNext makes the next RequestAccounts fail as if the user declined.
func (p *SimulatedProvider) RejectNext() {
	p.FailNext(ErrUserRejected)
}

func (p *SimulatedProvider) FailNext(err error) {
	p.mu.Lock()
	p.failNext = err
	p.mu.Unlock()
}

// SwitchAccounts replaces the account list and notifies subscribers. An
// empty list models the user revoking access.
func (p *SimulatedProvider) SwitchAccounts(accounts []string) {
	p.mu.Lock()
	p.accounts = append([]string(nil), accounts...)
	if len(accounts) == 0 {
		p.authorized = false
	}
	subs := make([]func([]string), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(append([]string(nil), accounts...))
	}
}

func (p *SimulatedProvider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// RandomAddress returns a random 20-byte hex address.
func RandomAddress() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "0x" + hex.EncodeToString(buf)
}
