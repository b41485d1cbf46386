package websocket

import (
	"encoding/json"

	gws "github.com/gorilla/websocket"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/service"
)

// Connection is a single websocket client. ReadPump decodes inbound
// frames and dispatches them to the chat service; WritePump drains the
// send queue. Acks are written by the connection itself: they answer the
// specific call that triggered a mutation and never travel the fan-out
// path.
type Connection struct {
	ID      string
	Ws      *gws.Conn
	Send    chan domain.Frame
	Hub     *Hub
	Service service.ChatService
	Logger  logger.Logger
}

// ReadPump consumes frames until the connection drops, then prunes all
// server-side state the connection held.
func (c *Connection) ReadPump() {
	defer func() {
		c.Service.Disconnect(c.ID)
		c.Hub.Unregister(c.ID)
		c.Ws.Close()
	}()

	for {
		var frame domain.Frame
		if err := c.Ws.ReadJSON(&frame); err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
				c.Logger.Errorf("read error on %s: %v", c.ID, err)
			}
			return
		}
		c.dispatch(frame)
	}
}

// WritePump sends queued frames until the send channel closes.
func (c *Connection) WritePump() {
	defer c.Ws.Close()

	for frame := range c.Send {
		if err := c.Ws.WriteJSON(frame); err != nil {
			c.Logger.Errorf("write error on %s: %v", c.ID, err)
			return
		}
	}
	// Channel closed by the hub: say goodbye properly.
	_ = c.Ws.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
}

func (c *Connection) dispatch(frame domain.Frame) {
	switch frame.Event {
	case domain.EventJoinRoom:
		var p domain.JoinPayload
		if !c.decode(frame, &p) {
			return
		}
		if err := c.Service.JoinRoom(c.ID, p.Username, p.Room); err != nil {
			c.Logger.Errorf("join failed for %s: %v", c.ID, err)
		}

	case domain.EventSendMessage, domain.EventFileShare:
		// file_share is a room send carrying the attachment descriptor;
		// log and fan-out are identical.
		var p domain.SendPayload
		if !c.decode(frame, &p) {
			return
		}
		c.ack(frame, c.Service.SendRoomMessage(c.ID, p))

	case domain.EventPrivateMessage:
		var p domain.PrivatePayload
		if !c.decode(frame, &p) {
			return
		}
		c.ack(frame, c.Service.SendPrivateMessage(c.ID, p))

	case domain.EventReactMessage:
		var p domain.ReactPayload
		if !c.decode(frame, &p) {
			return
		}
		c.Service.ToggleReaction(c.ID, p)

	case domain.EventReadReceipt:
		var p domain.ReadReceiptPayload
		if !c.decode(frame, &p) {
			return
		}
		c.Service.MarkRead(c.ID, p)

	case domain.EventTyping:
		var isTyping bool
		if !c.decode(frame, &isTyping) {
			return
		}
		c.Service.SetTyping(c.ID, isTyping)

	default:
		c.Logger.Warnf("unknown event %q from %s", frame.Event, c.ID)
	}
}

func (c *Connection) decode(frame domain.Frame, v interface{}) bool {
	if err := json.Unmarshal(frame.Data, v); err != nil {
		c.Logger.Errorf("invalid %s payload from %s: %v", frame.Event, c.ID, err)
		return false
	}
	return true
}

// ack answers the originating caller, and only the caller. Events sent
// without an ackId asked for no acknowledgment.
func (c *Connection) ack(frame domain.Frame, result domain.Ack) {
	if frame.AckID == "" {
		return
	}
	data, _ := json.Marshal(result)
	c.Hub.SendTo(c.ID, domain.Frame{Event: domain.EventAck, AckID: frame.AckID, Data: data})
}
