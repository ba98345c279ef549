package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorApply(t *testing.T) {
	m := NewMirror()
	m.Apply(Message{Type: MessageSnapshot, State: &session.State{Authenticated: true}})
	assert.True(t, m.Snapshot().Authenticated)
	assert.False(t, m.Updated().IsZero())

	for i := 0; i < session.MaxNotifications+2; i++ {
		m.Apply(Message{Type: MessageNotification, Notification: &domain.Notification{ID: string(rune('a' + i))}})
	}
	notes := m.Notifications()
	require.Len(t, notes, session.MaxNotifications)
	assert.Equal(t, string(rune('a'+session.MaxNotifications+1)), notes[0].ID)
}

func TestMirrorFollowsServer(t *testing.T) {
	store, _, url := newHubServer(t)
	m := NewMirror()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Follow(ctx, url, "")
	}()

	require.Eventually(t, m.Connected, 2*time.Second, 5*time.Millisecond)
	store.SetAuthenticated(true)
	require.Eventually(t, func() bool { return m.Snapshot().Authenticated }, 2*time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
	assert.False(t, m.Connected())
}
