// Package stream pushes session snapshots to WebSocket clients.
package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	noteBuffer     = 16
)

type MessageType string

const (
	MessageSnapshot     MessageType = "snapshot"
	MessageNotification MessageType = "notification"
)

type Message struct {
	Type         MessageType          `json:"type"`
	State        *session.State       `json:"state,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

type Snapshotter interface {
	Snapshot() session.State
}

type client struct {
	conn  *websocket.Conn
	dirty chan struct{}
	notes chan domain.Notification
	done  chan struct{}
}

// Hub fans store events out to connected clients. Snapshots are coalesced:
// a slow client receives the latest state, not every intermediate one.
type Hub struct {
	source   Snapshotter
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(source Snapshotter) *Hub {
	return &Hub{
		source:  source,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// OnEvent implements session.Observer.
func (h *Hub) OnEvent(ev session.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		switch ev.Kind {
		case session.EventStateChanged:
			select {
			case c.dirty <- struct{}{}:
			default:
			}
		case session.EventNotification:
			if ev.Notification == nil {
				continue
			}
			select {
			case c.notes <- *ev.Notification:
			default:
			}
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream upgrade error: %v", err)
		return
	}

	c := &client{
		conn:  conn,
		dirty: make(chan struct{}, 1),
		notes: make(chan domain.Notification, noteBuffer),
		done:  make(chan struct{}),
	}
	c.dirty <- struct{}{}
	h.register(c)

	go h.writePump(c)

	defer func() {
		h.unregister(c)
		close(c.done)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-c.dirty:
			st := h.source.Snapshot()
			if !h.write(c, Message{Type: MessageSnapshot, State: &st}) {
				return
			}
		case n := <-c.notes:
			if !h.write(c, Message{Type: MessageNotification, Notification: &n}) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(c *client, msg Message) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("stream write error: %v", err)
		c.conn.Close()
		return false
	}
	return true
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	log.Printf("stream client connected, total=%d", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		log.Printf("stream client disconnected, total=%d", len(h.clients))
	}
}
