package session

import (
	"time"

	"auratrade/internal/domain"
)

// Tx is the mutation handle passed to Update callbacks. Helpers replace
// slices instead of editing them so earlier snapshots stay valid.
type Tx struct {
	State  *State
	store  *Store
	events []Event
}

func (t *Tx) Now() time.Time { return t.store.now() }

func (t *Tx) NewID() string { return t.store.newID() }

// Notify pushes a toast onto the bounded notification list.
func (t *Tx) Notify(title, message string, typ domain.NotificationType) domain.Notification {
	n := domain.Notification{
		ID:        t.NewID(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: t.Now(),
	}
	t.State.Notifications = PushBounded(t.State.Notifications, n, MaxNotifications)
	t.events = append(t.events, Event{Kind: EventNotification, Notification: &n})
	return n
}

// Dismiss removes a notification by id.
func (t *Tx) Dismiss(id string) bool {
	before := len(t.State.Notifications)
	t.State.Notifications = RemoveWhere(t.State.Notifications, func(n domain.Notification) bool {
		return n.ID == id
	})
	return len(t.State.Notifications) != before
}

// Audit records a security audit event on the bounded audit log.
func (t *Tx) Audit(event string, severity domain.Severity) domain.AuditEntry {
	e := domain.AuditEntry{
		ID:        t.NewID(),
		Timestamp: t.Now(),
		Event:     event,
		Severity:  severity,
	}
	t.State.Audit = PushBounded(t.State.Audit, e, MaxAuditEntries)
	t.events = append(t.events, Event{Kind: EventAudit, Audit: &e})
	return e
}

// AppendTransaction adds a ledger row and returns it with its id.
func (t *Tx) AppendTransaction(typ domain.TxType, amount float64, status domain.TxStatus) domain.Transaction {
	row := domain.Transaction{
		ID:        t.NewID(),
		Timestamp: t.Now(),
		Type:      typ,
		Amount:    amount,
		Status:    status,
	}
	t.State.Transactions = Prepend(t.State.Transactions, row)
	return row
}

// AdvanceTransaction moves the row with id forward to status. It refuses
// unknown ids and any step that is not strictly forward. hash is only
// recorded on completion.
func (t *Tx) AdvanceTransaction(id string, status domain.TxStatus, hash string) bool {
	row, i := t.State.FindTransaction(id)
	if i < 0 || !row.Status.CanAdvanceTo(status) {
		return false
	}
	row.Status = status
	if status == domain.TxCompleted && hash != "" {
		row.TxHash = hash
	}
	t.State.Transactions = ReplaceAt(t.State.Transactions, i, row)
	return true
}

// SetBots replaces the bot collection and recomputes portfolio metrics.
func (t *Tx) SetBots(bots []domain.Bot) {
	t.State.Bots = bots
	t.State.Portfolio = domain.ComputePortfolio(bots, t.State.Portfolio)
}

// ReplaceBot swaps in b at index i.
func (t *Tx) ReplaceBot(i int, b domain.Bot) {
	t.SetBots(ReplaceAt(t.State.Bots, i, b))
}
