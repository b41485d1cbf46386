package nats

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// Client wraps the NATS connection used for event fan-out. Room-scoped
// broadcasts go to one subject per room; the global presence list goes
// to a single shared subject. Per-connection subscriptions are tracked
// so they can be dropped on room switches and on disconnect.
type Client struct {
	Conn *nats.Conn
	subs map[string]*nats.Subscription // subject:connID -> subscription
	mu   sync.Mutex
}

func NewClient(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		Conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Close drops every tracked subscription and closes the connection.
func (c *Client) Close() {
	c.CleanupSubscriptions()
	c.Conn.Close()
}

// CleanupSubscriptions removes all active subscriptions. Unsubscribe
// errors are ignored so cleanup always completes.
func (c *Client) CleanupSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, sub := range c.subs {
		_ = sub.Unsubscribe()
		delete(c.subs, key)
	}
}
