package service

import (
	"sync"

	"auratrade/internal/session"
)

type pendingConfirmation struct {
	view      session.Confirmation
	onConfirm func()
}

// ConfirmationGate holds at most one confirmation request. Destructive or
// balance-affecting actions are parked here until the user acknowledges.
type ConfirmationGate struct {
	mu      sync.Mutex
	pending *pendingConfirmation
	store   *session.Store
}

func NewConfirmationGate(store *session.Store) *ConfirmationGate {
	return &ConfirmationGate{store: store}
}

// Request opens a confirmation, replacing any request still open.
func (g *ConfirmationGate) Request(title, message string, onConfirm func(), confirmText string, variant session.ConfirmVariant) {
	if confirmText == "" {
		confirmText = "Confirm"
	}
	if variant == "" {
		variant = session.VariantWarning
	}
	p := &pendingConfirmation{
		view: session.Confirmation{
			Title:       title,
			Message:     message,
			ConfirmText: confirmText,
			Variant:     variant,
		},
		onConfirm: onConfirm,
	}

	g.mu.Lock()
	g.pending = p
	g.mu.Unlock()
	g.mirror(&p.view)
}

// Confirm closes the request and runs its callback exactly once, even when
// several confirms race. It returns false when nothing was open.
func (g *ConfirmationGate) Confirm() bool {
	g.mu.Lock()
	p := g.pending
	g.pending = nil
	g.mu.Unlock()
	if p == nil {
		return false
	}

	// Closed before the callback so a request it opens stays visible.
	g.mirror(nil)
	if p.onConfirm != nil {
		p.onConfirm()
	}
	return true
}

// Cancel closes the open request without running its callback.
func (g *ConfirmationGate) Cancel() bool {
	g.mu.Lock()
	p := g.pending
	g.pending = nil
	g.mu.Unlock()
	if p == nil {
		return false
	}
	g.mirror(nil)
	return true
}

// Pending returns the open request, if any.
func (g *ConfirmationGate) Pending() *session.Confirmation {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return nil
	}
	v := g.pending.view
	return &v
}

func (g *ConfirmationGate) mirror(view *session.Confirmation) {
	if g.store == nil {
		return
	}
	g.store.Update(func(tx *session.Tx) {
		tx.State.Confirmation = view
	})
}
