// Package client implements the chat client: a websocket connection with
// bounded reconnection, optimistic sends resolved by acks, and a local
// mirror of the server state reconciled from broadcast events.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

const (
	reconnectAttempts = 5
	reconnectDelay    = time.Second
	ackTimeout        = 5 * time.Second
	typingIdle        = time.Second
	historyPageSize   = 20
)

// Client connects to the chat server and keeps a Mirror reconciled with
// it. All exported methods are safe for concurrent use.
type Client struct {
	httpURL string
	wsURL   string

	mirror *Mirror
	logger logger.Logger
	httpc  *http.Client

	mu        sync.Mutex
	conn      *gws.Conn
	connected bool
	username  string
	room      string
	done      chan struct{}

	writeMu sync.Mutex

	acksMu sync.Mutex
	acks   map[string]chan domain.Ack

	typingMu    sync.Mutex
	isTyping    bool
	typingTimer *time.Timer

	// OnEvent, when set before Connect, observes every server frame
	// after the mirror has absorbed it. The terminal client uses it to
	// print live traffic.
	OnEvent func(domain.Frame)
}

// New builds a client for a server base URL such as
// "http://localhost:5000". The websocket endpoint is derived from it.
func New(serverURL string, mirror *Mirror, logg logger.Logger) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	wsBase := *base
	switch base.Scheme {
	case "http":
		wsBase.Scheme = "ws"
	case "https":
		wsBase.Scheme = "wss"
	case "ws", "wss":
		base.Scheme = "http"
		if wsBase.Scheme == "wss" {
			base.Scheme = "https"
		}
	default:
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	wsBase.Path = "/ws"

	return &Client{
		httpURL: strings.TrimRight(base.String(), "/"),
		wsURL:   wsBase.String(),
		mirror:  mirror,
		logger:  logg.WithModule("client"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		acks:    make(map[string]chan domain.Ack),
	}, nil
}

// Mirror exposes the reconciled local state.
func (c *Client) Mirror() *Mirror {
	return c.mirror
}

// Connect dials the server with bounded retries, starts the read loop,
// and joins the given room.
func (c *Client) Connect(ctx context.Context, username, room string) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.username = username
	c.room = room
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.readLoop(conn)

	return c.JoinRoom(room)
}

// dial attempts the websocket handshake up to reconnectAttempts times
// with a fixed delay between attempts.
func (c *Client) dial(ctx context.Context) (*gws.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		conn, _, err := gws.DefaultDialer.DialContext(ctx, c.wsURL, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.logger.Warnf("dial attempt %d/%d failed: %v", attempt, reconnectAttempts, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
	return nil, fmt.Errorf("could not reach server after %d attempts: %w", reconnectAttempts, lastErr)
}

// JoinRoom switches the client into a room. The mirror resets; history
// arrives via LoadOlder, live traffic via the read loop.
func (c *Client) JoinRoom(room string) error {
	c.mu.Lock()
	username := c.username
	c.room = room
	c.mu.Unlock()

	c.mirror.EnterRoom(room)
	return c.writeFrame(domain.NewFrame(domain.EventJoinRoom, domain.JoinPayload{
		Username: username,
		Room:     room,
	}))
}

// SendMessage performs an optimistic room send: the mirror shows the
// message immediately in pending state, and the server's ack promotes it
// to the authoritative id or flags it failed. Returns the correlation id
// of the provisional entry.
func (c *Client) SendMessage(text string) (string, error) {
	return c.optimisticSend(
		domain.EventSendMessage,
		domain.SendPayload{Message: text},
		domain.Message{
			Sender:    c.currentUsername(),
			Room:      c.mirror.Room(),
			Message:   text,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Reactions: map[string][]string{},
		},
	)
}

// ShareFile sends a room message carrying an attachment descriptor.
func (c *Client) ShareFile(text, fileURL, fileName, fileType string) (string, error) {
	return c.optimisticSend(
		domain.EventFileShare,
		domain.SendPayload{Message: text, FileURL: fileURL, FileName: fileName, FileType: fileType},
		domain.Message{
			Sender:    c.currentUsername(),
			Room:      c.mirror.Room(),
			Message:   text,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Reactions: map[string][]string{},
			FileURL:   fileURL,
			FileName:  fileName,
			FileType:  fileType,
		},
	)
}

// SendPrivate sends a one-to-one message to a connection id, with the
// same optimistic lifecycle as room sends.
func (c *Client) SendPrivate(to, text string) (string, error) {
	return c.optimisticSend(
		domain.EventPrivateMessage,
		domain.PrivatePayload{To: to, Message: text},
		domain.Message{
			Sender:    c.currentUsername(),
			Message:   text,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Reactions: map[string][]string{},
			IsPrivate: true,
			To:        to,
		},
	)
}

func (c *Client) optimisticSend(event string, payload interface{}, provisional domain.Message) (string, error) {
	// The wire ackId doubles as the mirror correlation id.
	tempID := uuid.NewString()
	c.mirror.AddOptimistic(tempID, provisional)
	c.StopTyping()

	ch := c.registerAck(tempID)
	frame := domain.NewFrame(event, payload)
	frame.AckID = tempID

	if err := c.writeFrame(frame); err != nil {
		c.dropAck(tempID)
		c.mirror.Acknowledge(tempID, domain.ErrorAck(err.Error()))
		return tempID, err
	}

	go func() {
		select {
		case ack := <-ch:
			c.mirror.Acknowledge(tempID, ack)
		case <-time.After(ackTimeout):
			c.dropAck(tempID)
			c.mirror.Acknowledge(tempID, domain.ErrorAck("ack timeout"))
		}
	}()
	return tempID, nil
}

// React toggles a reaction on a message. No ack; the message_reacted
// broadcast carries the outcome.
func (c *Client) React(messageID int64, reactionType string) error {
	return c.writeFrame(domain.NewFrame(domain.EventReactMessage, domain.ReactPayload{
		MessageID:    messageID,
		ReactionType: reactionType,
	}))
}

// MarkRead reports that everything up to lastMessageID in the current
// room has been seen.
func (c *Client) MarkRead(lastMessageID int64) error {
	return c.writeFrame(domain.NewFrame(domain.EventReadReceipt, domain.ReadReceiptPayload{
		Room:          c.mirror.Room(),
		LastMessageID: lastMessageID,
	}))
}

// InputChanged drives the typing indicator from keystrokes: a non-empty
// draft starts typing, a second of silence or clearing the draft stops
// it. Transitions only hit the wire on change.
func (c *Client) InputChanged(draft string) {
	c.typingMu.Lock()
	defer c.typingMu.Unlock()

	if draft == "" {
		c.stopTypingLocked()
		return
	}

	if !c.isTyping {
		c.isTyping = true
		if err := c.writeFrame(domain.NewFrame(domain.EventTyping, true)); err != nil {
			c.isTyping = false
			return
		}
	}
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(typingIdle, c.StopTyping)
}

// StopTyping clears the typing state immediately, as on send or draft
// clear.
func (c *Client) StopTyping() {
	c.typingMu.Lock()
	defer c.typingMu.Unlock()
	c.stopTypingLocked()
}

func (c *Client) stopTypingLocked() {
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	if !c.isTyping {
		return
	}
	c.isTyping = false
	_ = c.writeFrame(domain.NewFrame(domain.EventTyping, false))
}

// LoadOlder fetches the next page of room history over HTTP and merges
// it into the mirror. Overlapping calls and exhausted history are
// no-ops.
func (c *Client) LoadOlder(ctx context.Context) error {
	if !c.mirror.BeginHistoryLoad() {
		return nil
	}
	defer c.mirror.EndHistoryLoad()

	endpoint := fmt.Sprintf("%s/api/messages?room=%s&limit=%d&offset=%d",
		c.httpURL,
		url.QueryEscape(c.mirror.Room()),
		historyPageSize,
		c.mirror.NonSystemCount(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("history fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history fetch failed: %s", resp.Status)
	}

	var page []domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("history decode failed: %w", err)
	}

	c.mirror.MergeOlder(page)
	return nil
}

// SetVisible reports foreground state to the mirror, and marks the
// newest held message read when coming back into view.
func (c *Client) SetVisible(visible bool) {
	c.mirror.SetVisible(visible)
	if !visible {
		return
	}
	var last int64
	for _, e := range c.mirror.Messages() {
		if !e.System && !e.IsPrivate && e.ID > last {
			last = e.ID
		}
	}
	if last > 0 {
		_ = c.MarkRead(last)
	}
}

// IsConnected reports whether the websocket is live.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close shuts the connection down for good; no reconnection follows.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
	c.connected = false
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
	return c.conn.Close()
}

func (c *Client) currentUsername() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func (c *Client) writeFrame(frame domain.Frame) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(frame)
}

func (c *Client) registerAck(ackID string) chan domain.Ack {
	ch := make(chan domain.Ack, 1)
	c.acksMu.Lock()
	c.acks[ackID] = ch
	c.acksMu.Unlock()
	return ch
}

func (c *Client) dropAck(ackID string) {
	c.acksMu.Lock()
	delete(c.acks, ackID)
	c.acksMu.Unlock()
}

func (c *Client) resolveAck(frame domain.Frame) {
	c.acksMu.Lock()
	ch, ok := c.acks[frame.AckID]
	if ok {
		delete(c.acks, frame.AckID)
	}
	c.acksMu.Unlock()
	if !ok {
		return
	}

	var ack domain.Ack
	if err := json.Unmarshal(frame.Data, &ack); err != nil {
		ack = domain.ErrorAck("malformed ack")
	}
	ch <- ack
}

// readLoop consumes server frames until the connection drops, then
// attempts a bounded reconnect.
func (c *Client) readLoop(conn *gws.Conn) {
	for {
		var frame domain.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			c.mu.Lock()
			done := c.done
			c.mu.Unlock()
			select {
			case <-done:
				return
			default:
			}
			c.logger.Warnf("connection lost: %v", err)
			c.reconnect()
			return
		}
		c.handleFrame(frame)
		if c.OnEvent != nil {
			c.OnEvent(frame)
		}
	}
}

func (c *Client) handleFrame(frame domain.Frame) {
	switch frame.Event {
	case domain.EventConnected:
		var ev domain.ConnectedEvent
		if json.Unmarshal(frame.Data, &ev) == nil {
			c.mirror.SetSelfID(ev.ID)
		}

	case domain.EventAck:
		c.resolveAck(frame)

	case domain.EventReceiveMessage, domain.EventPrivateMessage:
		var msg domain.Message
		if json.Unmarshal(frame.Data, &msg) == nil {
			c.mirror.ApplyMessage(msg)
		}

	case domain.EventMessageReacted:
		var ev domain.ReactionEvent
		if json.Unmarshal(frame.Data, &ev) == nil {
			c.mirror.ApplyReaction(ev)
		}

	case domain.EventMessageRead:
		var ev domain.ReadEvent
		if json.Unmarshal(frame.Data, &ev) == nil {
			c.mirror.ApplyRead(ev)
		}

	case domain.EventUserList:
		var users []domain.User
		if json.Unmarshal(frame.Data, &users) == nil {
			c.mirror.SetUsers(users)
		}

	case domain.EventUserJoined:
		var ev domain.UserEvent
		if json.Unmarshal(frame.Data, &ev) == nil {
			c.mirror.AddSystem(fmt.Sprintf("%s joined the room", ev.Username))
		}

	case domain.EventUserLeft:
		var ev domain.UserEvent
		if json.Unmarshal(frame.Data, &ev) == nil {
			c.mirror.AddSystem(fmt.Sprintf("%s left the room", ev.Username))
		}

	case domain.EventTypingUsers:
		var users []string
		if json.Unmarshal(frame.Data, &users) == nil {
			c.mirror.SetTypingUsers(users)
		}

	default:
		c.logger.Debugf("ignoring unknown event %q", frame.Event)
	}
}

// reconnect retries the handshake a bounded number of times. On success
// the client rejoins its room under a fresh server identity; on
// exhaustion it stays disconnected and the caller must Connect again.
func (c *Client) reconnect() {
	c.mu.Lock()
	c.connected = false
	room := c.room
	done := c.done
	c.mu.Unlock()

	c.mirror.AddSystem("Connection lost. Reconnecting...")

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		select {
		case <-done:
			return
		case <-time.After(reconnectDelay):
		}

		conn, _, err := gws.DefaultDialer.Dial(c.wsURL, nil)
		if err != nil {
			c.logger.Warnf("reconnect attempt %d/%d failed: %v", attempt, reconnectAttempts, err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()

		go c.readLoop(conn)

		c.mirror.AddSystem("Reconnected.")
		if err := c.JoinRoom(room); err != nil {
			c.logger.Errorf("rejoin failed: %v", err)
		}
		return
	}

	c.logger.Errorf("giving up after %d reconnect attempts", reconnectAttempts)
	c.mirror.AddSystem("Disconnected from server.")
}
