package nats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

const globalSubject = "chat.events.global"

// roomSubject maps a room name to its fan-out subject. Room names are
// free-form ("Tech Talk") but subject tokens cannot contain spaces,
// dots, or wildcards, so the name is escaped into a single token.
func roomSubject(room string) string {
	token := url.QueryEscape(room)
	token = strings.ReplaceAll(token, ".", "%2E")
	return "chat.room." + token
}

// PublishRoom fans an envelope out to every subscriber of the room's
// subject. NATS preserves publish order per subject for a single
// connection, so room broadcasts are observed in processing order.
func (c *Client) PublishRoom(room string, env domain.Envelope) error {
	return c.publish(roomSubject(room), env)
}

// PublishGlobal fans an envelope out to every connected client.
func (c *Client) PublishGlobal(env domain.Envelope) error {
	return c.publish(globalSubject, env)
}

func (c *Client) publish(subject string, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}
	return c.Conn.Publish(subject, data)
}
