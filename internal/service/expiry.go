package service

import (
	"time"

	"auratrade/internal/session"
)

// NotificationExpiry dismisses every toast a fixed time after it was
// raised. It subscribes itself to the store. sched must not be the session
// scheduler: logout cancels that one, and toasts survive logout.
type NotificationExpiry struct {
	store *session.Store
	sched Scheduler
	ttl   time.Duration
}

func NewNotificationExpiry(store *session.Store, sched Scheduler, ttl time.Duration) *NotificationExpiry {
	e := &NotificationExpiry{store: store, sched: sched, ttl: ttl}
	if ttl > 0 {
		store.Subscribe(e)
	}
	return e
}

func (e *NotificationExpiry) OnEvent(ev session.Event) {
	if ev.Kind != session.EventNotification || ev.Notification == nil {
		return
	}
	id := ev.Notification.ID
	e.sched.After(e.ttl, func() {
		e.store.Update(func(tx *session.Tx) {
			tx.Dismiss(id)
		})
	})
}
