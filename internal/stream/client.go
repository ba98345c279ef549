package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Client reads the snapshot stream of a running server.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a stream endpoint such as ws://host:8080/api/session/ws.
// apiKey is sent as X-API-Key when set.
func Dial(ctx context.Context, url, apiKey string) (*Client, error) {
	header := http.Header{}
	if apiKey != "" {
		header.Set("X-API-Key", apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial stream %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks until the next message arrives.
func (c *Client) Next() (Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
