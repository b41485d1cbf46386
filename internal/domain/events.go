package domain

import "encoding/json"

// Client -> server events.
const (
	EventJoinRoom       = "user_join_room"
	EventSendMessage    = "send_message"
	EventFileShare      = "file_share"
	EventPrivateMessage = "private_message"
	EventReactMessage   = "react_message"
	EventReadReceipt    = "read_receipt"
	EventTyping         = "typing"
)

// Server -> client events. EventPrivateMessage travels in both
// directions: the send request and the delivered copies share the name.
const (
	EventReceiveMessage = "receive_message"
	EventMessageReacted = "message_reacted"
	EventMessageRead    = "message_read"
	EventUserList       = "user_list"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventTypingUsers    = "typing_users"
	EventConnected      = "connected"
	EventAck            = "ack"
)

// ConnectedEvent is the first frame a client receives. It carries the
// server-assigned connection id, which the client uses to recognize its
// own messages in broadcasts.
type ConnectedEvent struct {
	ID string `json:"id"`
}

// Frame is the unit of the websocket protocol in both directions.
// AckID correlates a client request with the server's ack frame; it is
// empty for events that carry no acknowledgment.
type Frame struct {
	Event string          `json:"event"`
	AckID string          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals v into a frame for the given event. Marshal errors
// are impossible for the domain payload types, so they are swallowed.
func NewFrame(event string, v interface{}) Frame {
	data, _ := json.Marshal(v)
	return Frame{Event: event, Data: data}
}

// Envelope wraps a frame for NATS fan-out. Exclude names a connection id
// that must not receive the frame (the typing originator).
type Envelope struct {
	Exclude string `json:"exclude,omitempty"`
	Frame   Frame  `json:"frame"`
}

// Ack statuses.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Ack is the direct, one-to-one response to a send call. It is the sole
// mechanism by which a sender learns the authoritative message id.
type Ack struct {
	Status    string `json:"status"`
	ID        int64  `json:"id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OKAck builds a success ack for an appended message.
func OKAck(id int64, timestamp string) Ack {
	return Ack{Status: StatusOK, ID: id, Timestamp: timestamp}
}

// ErrorAck builds a failure ack carrying the reason text.
func ErrorAck(msg string) Ack {
	return Ack{Status: StatusError, Message: msg}
}
