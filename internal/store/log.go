package store

import (
	"sync"
	"time"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

// ReadReceipt pairs a freshly-read message with the connection that sent
// it, so the service can notify each original sender individually.
type ReadReceipt struct {
	MessageID int64
	SenderID  string
}

// MessageLog is the append-only, in-memory store of every message sent
// while the process runs. Ids are assigned here and nowhere else: a
// global counter starting at 1, strictly increasing across all rooms and
// across public/private traffic, never reused.
//
// All state is volatile and lost on restart.
type MessageLog struct {
	mu       sync.RWMutex
	nextID   int64
	messages []*domain.Message
	byID     map[int64]*domain.Message
}

func NewMessageLog() *MessageLog {
	return &MessageLog{
		nextID: 1,
		byID:   make(map[int64]*domain.Message),
	}
}

// Append assigns the next id, stamps the server timestamp, and stores
// the message. The stored copy is returned.
func (l *MessageLog) Append(msg domain.Message) domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg.ID = l.nextID
	l.nextID++
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}

	stored := msg
	l.messages = append(l.messages, &stored)
	l.byID[stored.ID] = &stored
	return cloneMessage(&stored)
}

// Page returns up to limit non-private messages for room, skipping
// offset entries counted from the most recent. The result is in
// ascending-id order: selection walks the log id-descending, then the
// window is reversed, which yields "most recent N before the offset"
// without a separate index. An out-of-range offset yields an empty page.
func (l *MessageLog) Page(room string, limit, offset int) []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || offset < 0 {
		return []domain.Message{}
	}

	page := make([]domain.Message, 0, limit)
	skipped := 0
	for i := len(l.messages) - 1; i >= 0; i-- {
		msg := l.messages[i]
		if msg.Room != room || msg.IsPrivate {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		page = append(page, cloneMessage(msg))
		if len(page) == limit {
			break
		}
	}

	// Reverse back to ascending-id order.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page
}

// ToggleReaction flips actorID's membership in the message's reaction
// set for kind: present -> removed, absent -> added. A missing message
// id is a silent no-op (ok=false) rather than an error. On success the
// complete reaction map and the message's room are returned for
// rebroadcast.
func (l *MessageLog) ToggleReaction(actorID string, messageID int64, kind string) (map[string][]string, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg, ok := l.byID[messageID]
	if !ok {
		return nil, "", false
	}

	members := msg.Reactions[kind]
	found := -1
	for i, id := range members {
		if id == actorID {
			found = i
			break
		}
	}
	if found >= 0 {
		msg.Reactions[kind] = append(members[:found], members[found+1:]...)
	} else {
		msg.Reactions[kind] = append(members, actorID)
	}

	return cloneReactions(msg.Reactions), msg.Room, true
}

// MarkRead sweeps the log and adds readerID to the read-by set of every
// message in room with id <= lastMessageID that the reader did not send
// and has not already read. One receipt per newly-read message is
// returned; re-delivering the same receipt yields none, since membership
// is checked before insertion.
func (l *MessageLog) MarkRead(readerID, room string, lastMessageID int64) []ReadReceipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	var receipts []ReadReceipt
	for _, msg := range l.messages {
		if msg.Room != room || msg.IsPrivate || msg.ID > lastMessageID || msg.SenderID == readerID {
			continue
		}
		if containsString(msg.ReadBy, readerID) {
			continue
		}
		msg.ReadBy = append(msg.ReadBy, readerID)
		receipts = append(receipts, ReadReceipt{MessageID: msg.ID, SenderID: msg.SenderID})
	}
	return receipts
}

// Get returns a copy of the message with the given id.
func (l *MessageLog) Get(id int64) (domain.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	msg, ok := l.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	return cloneMessage(msg), true
}

// Len reports how many messages have been appended.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

func cloneMessage(msg *domain.Message) domain.Message {
	out := *msg
	out.Reactions = cloneReactions(msg.Reactions)
	if msg.ReadBy != nil {
		out.ReadBy = append([]string(nil), msg.ReadBy...)
	}
	return out
}

func cloneReactions(reactions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(reactions))
	for kind, members := range reactions {
		out[kind] = append([]string(nil), members...)
	}
	return out
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
