package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/nats"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/presence"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/store"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/typing"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

// ChatService defines the coordinator interface. Every mutation of the
// shared presence map, message log, and typing set goes through here.
type ChatService interface {
	Connect(connID string) error
	Disconnect(connID string)
	JoinRoom(connID, username, room string) error
	SendRoomMessage(connID string, p domain.SendPayload) domain.Ack
	SendPrivateMessage(connID string, p domain.PrivatePayload) domain.Ack
	ToggleReaction(connID string, p domain.ReactPayload)
	MarkRead(connID string, p domain.ReadReceiptPayload)
	SetTyping(connID string, isTyping bool)
	PageMessages(room string, limit, offset int) []domain.Message
}

// DirectSender delivers a frame to exactly one connection. Implemented
// by the websocket hub; kept as an interface so the service never
// depends on the transport package.
type DirectSender interface {
	SendTo(connID string, frame domain.Frame) bool
	Connected(connID string) bool
}

type chatService struct {
	ctx      context.Context
	natsClnt *nats.Client
	presence *presence.Directory
	log      *store.MessageLog
	typing   *typing.Aggregator
	sender   DirectSender
	logger   logger.Logger

	// mu is the single processing queue: each inbound event completes,
	// including its log mutation and fan-out publish, before the next
	// begins. Per-room broadcast order therefore equals processing
	// order. A slow handler delays everyone; accepted at this scale.
	mu sync.Mutex
}

func NewChatService(
	ctx context.Context,
	nc *nats.Client,
	dir *presence.Directory,
	msgLog *store.MessageLog,
	sender DirectSender,
) ChatService {
	s := &chatService{
		ctx:      ctx,
		natsClnt: nc,
		presence: dir,
		log:      msgLog,
		typing:   typing.NewAggregator(),
		sender:   sender,
		logger:   logger.FromContext(ctx).WithModule("service"),
	}
	return s
}

// Connect wires a fresh connection into the global event stream. The
// presence entry itself is only created on the first join.
func (s *chatService) Connect(connID string) error {
	if err := s.natsClnt.SubscribeGlobal(connID, s.forwardTo(connID)); err != nil {
		return fmt.Errorf("failed to subscribe to global events: %w", err)
	}
	s.logger.Infof("connection %s established", connID)
	return nil
}

// JoinRoom moves the connection into room, leaving any prior room
// first. Both rooms get their joined/left notification and every
// connected client gets the refreshed global presence list. Idempotent
// per connection; no error surfaces to the client (join carries no ack).
func (s *chatService) JoinRoom(connID, username, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldRoom, err := s.presence.Join(s.ctx, connID, username, room)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}

	if oldRoom != "" {
		// A room switch mid-keystroke must not leave the identity in the
		// old room's typing list.
		if typingRoom, remaining, ok := s.typing.Clear(connID); ok {
			s.publishRoom(typingRoom, domain.NewFrame(domain.EventTypingUsers, remaining), "")
		}
		if err := s.natsClnt.UnsubscribeRoom(oldRoom, connID); err != nil {
			s.logger.Errorf("failed to unsubscribe %s from %s: %v", connID, oldRoom, err)
		}
		s.publishRoom(oldRoom, domain.NewFrame(domain.EventUserLeft, domain.UserEvent{
			Username: username, ID: connID, Room: oldRoom,
		}), "")
	}

	// Subscribe before announcing so the joiner observes its own join.
	if err := s.natsClnt.SubscribeRoom(room, connID, s.forwardTo(connID)); err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %w", room, err)
	}

	s.publishRoom(room, domain.NewFrame(domain.EventUserJoined, domain.UserEvent{
		Username: username, ID: connID, Room: room,
	}), "")
	s.publishUserList()

	s.logger.Infof("%s joined room %s", username, room)
	return nil
}

// SendRoomMessage validates, stamps, appends, and fans out a public
// message. The returned ack goes to the originating caller only and is
// the sole carrier of the authoritative id.
func (s *chatService) SendRoomMessage(connID string, p domain.SendPayload) domain.Ack {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok, err := s.presence.Lookup(s.ctx, connID)
	if err != nil {
		s.logger.Errorf("presence lookup failed for %s: %v", connID, err)
		return domain.ErrorAck(domain.AckMessage(domain.ErrUserNotFound))
	}
	if !ok || user.Room == "" {
		return domain.ErrorAck(domain.AckMessage(domain.ErrNotInRoom))
	}

	stored := s.log.Append(domain.Message{
		Sender:   user.Username,
		SenderID: connID,
		Room:     user.Room,
		Message:  p.Message,
		FileURL:  p.FileURL,
		FileName: p.FileName,
		FileType: p.FileType,
	})

	// The sender is one of the room subscribers; its own copy arrives
	// through the broadcast, reconciliation happens through the ack.
	s.publishRoom(user.Room, domain.NewFrame(domain.EventReceiveMessage, stored), "")
	return domain.OKAck(stored.ID, stored.Timestamp)
}

// SendPrivateMessage routes a message to one recipient connection. The
// recipient must be connected; on failure nothing is appended. Both
// recipient and sender get a direct copy with isPrivate set, so the
// sender holds a confirmed copy independent of the ack.
func (s *chatService) SendPrivateMessage(connID string, p domain.PrivatePayload) domain.Ack {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok, err := s.presence.Lookup(s.ctx, connID)
	if err != nil || !ok {
		return domain.ErrorAck(domain.AckMessage(domain.ErrUserNotFound))
	}
	if !s.sender.Connected(p.To) {
		return domain.ErrorAck(domain.AckMessage(domain.ErrRecipientOffline))
	}

	stored := s.log.Append(domain.Message{
		Sender:    user.Username,
		SenderID:  connID,
		Room:      user.Room,
		Message:   p.Message,
		IsPrivate: true,
		To:        p.To,
	})

	frame := domain.NewFrame(domain.EventPrivateMessage, stored)
	s.sender.SendTo(p.To, frame)
	s.sender.SendTo(connID, frame)
	return domain.OKAck(stored.ID, stored.Timestamp)
}

// ToggleReaction flips the caller's membership in one reaction set and
// rebroadcasts the complete map to the message's room. A missing
// message id is treated as already resolved.
func (s *chatService) ToggleReaction(connID string, p domain.ReactPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.presence.Lookup(s.ctx, connID); err != nil || !ok {
		return
	}

	reactions, room, ok := s.log.ToggleReaction(connID, p.MessageID, p.ReactionType)
	if !ok || room == "" {
		return
	}
	s.publishRoom(room, domain.NewFrame(domain.EventMessageReacted, domain.ReactionEvent{
		MessageID:    p.MessageID,
		NewReactions: reactions,
	}), "")
}

// MarkRead sweeps the log up to lastMessageId and notifies each
// original sender, and only the sender, once per newly-read message.
func (s *chatService) MarkRead(connID string, p domain.ReadReceiptPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.presence.Lookup(s.ctx, connID); err != nil || !ok {
		return
	}

	for _, receipt := range s.log.MarkRead(connID, p.Room, p.LastMessageID) {
		s.sender.SendTo(receipt.SenderID, domain.NewFrame(domain.EventMessageRead, domain.ReadEvent{
			MessageID: receipt.MessageID,
			ReaderID:  connID,
		}))
	}
}

// SetTyping updates the typing set and broadcasts the room's typing
// usernames to everyone in the room except the originator. Not being in
// a room is a no-op. Expiry is client-driven; the server only clears
// entries on explicit stop and on disconnect.
func (s *chatService) SetTyping(connID string, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok, err := s.presence.Lookup(s.ctx, connID)
	if err != nil || !ok || user.Room == "" {
		return
	}

	users := s.typing.Set(connID, user.Username, user.Room, isTyping)
	s.publishRoom(user.Room, domain.NewFrame(domain.EventTypingUsers, users), connID)
}

// Disconnect prunes everything the connection held: typing entry,
// presence entry, and subscriptions. Broadcasts already queued to other
// connections proceed regardless.
func (s *chatService) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, remaining, ok := s.typing.Clear(connID); ok {
		s.publishRoom(room, domain.NewFrame(domain.EventTypingUsers, remaining), "")
	}

	user, ok, err := s.presence.Leave(s.ctx, connID)
	if err != nil {
		s.logger.Errorf("failed to prune presence for %s: %v", connID, err)
	}
	if ok && user.Room != "" {
		s.publishRoom(user.Room, domain.NewFrame(domain.EventUserLeft, domain.UserEvent{
			Username: user.Username, ID: connID, Room: user.Room,
		}), "")
		s.logger.Infof("%s left the chat from room %s", user.Username, user.Room)
	}
	s.publishUserList()
	s.natsClnt.UnsubscribeConn(connID)
}

// PageMessages reads a point-in-time snapshot of the log. It never
// mutates and deliberately bypasses the processing queue.
func (s *chatService) PageMessages(room string, limit, offset int) []domain.Message {
	return s.log.Page(room, limit, offset)
}

// forwardTo builds the NATS handler that pushes fan-out frames into one
// connection's send queue.
func (s *chatService) forwardTo(connID string) func(domain.Frame) {
	return func(frame domain.Frame) {
		s.sender.SendTo(connID, frame)
	}
}

func (s *chatService) publishRoom(room string, frame domain.Frame, exclude string) {
	err := s.natsClnt.PublishRoom(room, domain.Envelope{Exclude: exclude, Frame: frame})
	if err != nil {
		s.logger.Errorf("failed to publish %s to room %s: %v", frame.Event, room, err)
	}
}

func (s *chatService) publishUserList() {
	users, err := s.presence.ListAll(s.ctx)
	if err != nil {
		s.logger.Errorf("failed to list users: %v", err)
		return
	}
	frame := domain.NewFrame(domain.EventUserList, users)
	if err := s.natsClnt.PublishGlobal(domain.Envelope{Frame: frame}); err != nil {
		s.logger.Errorf("failed to publish user list: %v", err)
	}
}
