package nats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

// SubscribeRoom subscribes a connection to a room's subject. Envelopes
// whose Exclude field names this connection are filtered out before the
// handler runs (the typing originator never receives its own typing
// broadcast). Duplicate subscriptions for the same connection and room
// are ignored.
func (c *Client) SubscribeRoom(room, connID string, handle func(domain.Frame)) error {
	return c.subscribe(roomSubject(room), connID, handle)
}

// SubscribeGlobal subscribes a connection to the global subject, which
// carries the full presence list after every join and leave.
func (c *Client) SubscribeGlobal(connID string, handle func(domain.Frame)) error {
	return c.subscribe(globalSubject, connID, handle)
}

func (c *Client) subscribe(subject, connID string, handle func(domain.Frame)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := subKey(subject, connID)
	if _, exists := c.subs[key]; exists {
		return nil
	}

	sub, err := c.Conn.Subscribe(subject, func(msg *nats.Msg) {
		var env domain.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return // skip invalid envelopes
		}
		if env.Exclude == connID {
			return
		}
		handle(env.Frame)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.subs[key] = sub
	return nil
}

// UnsubscribeRoom removes a connection's subscription to a room. A
// missing subscription is not an error.
func (c *Client) UnsubscribeRoom(room, connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := subKey(roomSubject(room), connID)
	if sub, exists := c.subs[key]; exists {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("failed to unsubscribe: %w", err)
		}
		delete(c.subs, key)
	}
	return nil
}

// UnsubscribeConn drops every subscription held for a connection. Used
// on disconnect.
func (c *Client) UnsubscribeConn(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	suffix := ":" + connID
	for key, sub := range c.subs {
		if strings.HasSuffix(key, suffix) {
			_ = sub.Unsubscribe()
			delete(c.subs, key)
		}
	}
}

func subKey(subject, connID string) string {
	return fmt.Sprintf("%s:%s", subject, connID)
}
