package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"
)

// Mirror keeps the latest snapshot received from a server so readers can
// poll it without touching the network.
type Mirror struct {
	mu        sync.RWMutex
	state     session.State
	notes     []domain.Notification
	connected bool
	updated   time.Time
}

func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Snapshot() session.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connected reports whether the mirror currently has a live stream.
func (m *Mirror) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mirror) Updated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated
}

func (m *Mirror) Apply(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg.Type {
	case MessageSnapshot:
		if msg.State != nil {
			m.state = *msg.State
			m.updated = time.Now()
		}
	case MessageNotification:
		if msg.Notification != nil {
			m.notes = session.PushBounded(m.notes, *msg.Notification, session.MaxNotifications)
		}
	}
}

// Notifications returns the most recent relayed notifications, newest first.
func (m *Mirror) Notifications() []domain.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return session.Clone(m.notes)
}

func (m *Mirror) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

// Follow dials url and applies every message to m, redialling with
// backoff until ctx is cancelled.
func (m *Mirror) Follow(ctx context.Context, url, apiKey string) {
	backoff := time.Second
	for {
		client, err := Dial(ctx, url, apiKey)
		if err == nil {
			backoff = time.Second
			m.setConnected(true)
			m.consume(ctx, client)
			m.setConnected(false)
		} else {
			log.Printf("stream mirror error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (m *Mirror) consume(ctx context.Context, client *Client) {
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()
	defer client.Close()

	for {
		msg, err := client.Next()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("stream mirror read error: %v", err)
			}
			return
		}
		m.Apply(msg)
	}
}
