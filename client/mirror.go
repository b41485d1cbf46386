package client

import (
	"fmt"
	"sync"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

// DeliveryState tracks a sent message through its lifecycle. Only the
// local client's own sends carry a state.
type DeliveryState string

const (
	DeliveryPending      DeliveryState = "pending"
	DeliveryAcknowledged DeliveryState = "acknowledged"
	DeliveryFailed       DeliveryState = "failed"
)

// Entry is one row of the local mirror: either a server message, a
// client-only system line, or a provisional optimistic send awaiting
// its acknowledgment.
type Entry struct {
	domain.Message

	// TempID is the locally-generated correlation id of an optimistic
	// send. It is how the ack finds its entry; rendering identity never
	// keys on it.
	TempID   string
	Delivery DeliveryState
	System   bool
}

// Mirror is the client's local, possibly-stale view of the server
// state, reconciled via events. The server owns the truth; the mirror
// only ever reorders, merges, and annotates what it is told.
type Mirror struct {
	mu sync.Mutex

	selfID  string
	room    string
	entries []Entry

	hasMore        bool
	loadingHistory bool

	users       []domain.User
	typingUsers []string

	visible  bool
	unread   int
	notifier Notifier
}

func NewMirror(notifier Notifier) *Mirror {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Mirror{
		hasMore:  true,
		visible:  true,
		notifier: notifier,
	}
}

// SetSelfID records the live connection id. "Mine" is always judged
// against this id, never against a temporary one.
func (m *Mirror) SetSelfID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selfID = id
}

func (m *Mirror) SelfID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selfID
}

// EnterRoom resets the mirror for a room: history, pagination flags,
// and typing state all start over. Re-entering a room re-arms the
// "no more history" flag.
func (m *Mirror) EnterRoom(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = room
	m.entries = nil
	m.hasMore = true
	m.loadingHistory = false
	m.typingUsers = nil
}

func (m *Mirror) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// AddOptimistic inserts a provisional entry for instant feedback. It
// carries the correlation id and a pending state until the ack lands.
func (m *Mirror) AddOptimistic(tempID string, msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.SenderID = m.selfID
	m.entries = append(m.entries, Entry{
		Message:  msg,
		TempID:   tempID,
		Delivery: DeliveryPending,
	})
}

// Acknowledge resolves an optimistic send. Success promotes the entry
// to the authoritative id and timestamp; failure flags it failed, and
// no retry is attempted.
func (m *Mirror) Acknowledge(tempID string, ack domain.Ack) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].TempID != tempID {
			continue
		}
		if ack.Status == domain.StatusOK {
			m.entries[i].ID = ack.ID
			if ack.Timestamp != "" {
				m.entries[i].Timestamp = ack.Timestamp
			}
			m.entries[i].Delivery = DeliveryAcknowledged
		} else {
			m.entries[i].Delivery = DeliveryFailed
		}
		return
	}
}

// ApplyMessage merges an incoming receive_message or private_message
// broadcast. The sender's own broadcast copy reconciles against the
// optimistic entry instead of duplicating it; everything else is
// appended, with unread/notification side effects while the view is
// hidden.
func (m *Mirror) ApplyMessage(msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.containsID(msg.ID) {
		return
	}

	if msg.SenderID == m.selfID {
		// Broadcast may outrun the ack: adopt the server copy into the
		// oldest matching pending entry, keeping the pending state for
		// the ack to resolve.
		for i := range m.entries {
			e := &m.entries[i]
			if e.Delivery == DeliveryPending && e.ID == 0 && e.Message.Message == msg.Message {
				id := e.TempID
				state := e.Delivery
				m.entries[i] = Entry{Message: msg, TempID: id, Delivery: state}
				return
			}
		}
		m.entries = append(m.entries, Entry{Message: msg, Delivery: DeliveryAcknowledged})
		return
	}

	m.entries = append(m.entries, Entry{Message: msg})

	if !m.visible {
		m.unread++
		m.notifier.Notify(fmt.Sprintf("%s in #%s", msg.Sender, msg.Room), msg.Message)
		m.notifier.Beep()
	}
}

// MergeOlder folds a fetched history page into the mirror: entries
// whose id is already held are discarded, the remainder is prepended
// ahead of current messages but after pinned system lines. An empty
// page permanently flags "no more history" until the room is
// re-entered.
func (m *Mirror) MergeOlder(page []domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(page) == 0 {
		m.hasMore = false
		return
	}

	var fresh []Entry
	for _, msg := range page {
		if !m.containsID(msg.ID) {
			fresh = append(fresh, Entry{Message: msg})
		}
	}
	if len(fresh) == 0 {
		return
	}

	var system, actual []Entry
	for _, e := range m.entries {
		if e.System {
			system = append(system, e)
		} else {
			actual = append(actual, e)
		}
	}
	m.entries = append(append(system, fresh...), actual...)
}

// ApplyReaction replaces a message's reaction map with the broadcast
// full map. Unknown ids are ignored; a later reaction event will
// self-correct any divergence.
func (m *Mirror) ApplyReaction(ev domain.ReactionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == ev.MessageID {
			m.entries[i].Reactions = ev.NewReactions
			return
		}
	}
}

// ApplyRead adds a reader to a message's read-by set, once.
func (m *Mirror) ApplyRead(ev domain.ReadEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID != ev.MessageID {
			continue
		}
		for _, id := range m.entries[i].ReadBy {
			if id == ev.ReaderID {
				return
			}
		}
		m.entries[i].ReadBy = append(m.entries[i].ReadBy, ev.ReaderID)
		return
	}
}

// AddSystem appends a client-only system line (joins, leaves,
// connection notices). System entries never leave the client and are
// pinned ahead of merged history pages.
func (m *Mirror) AddSystem(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		Message: domain.Message{Message: text},
		System:  true,
	})
}

func (m *Mirror) SetUsers(users []domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

// Users returns the last received global presence list.
func (m *Mirror) Users() []domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.User(nil), m.users...)
}

func (m *Mirror) SetTypingUsers(users []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typingUsers = users
}

func (m *Mirror) TypingUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.typingUsers...)
}

// SetVisible flips foreground state. Becoming visible clears the
// unread counter; while hidden, arriving messages accumulate it.
func (m *Mirror) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
	if visible {
		m.unread = 0
	}
}

func (m *Mirror) Unread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread
}

// Title renders the persistent title/badge text.
func (m *Mirror) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unread > 0 {
		return fmt.Sprintf("(%d) Real-Time Chat (%s)", m.unread, m.room)
	}
	return fmt.Sprintf("Real-Time Chat (%s)", m.room)
}

// Messages returns a snapshot of the mirror's entries.
func (m *Mirror) Messages() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// NonSystemCount is the pagination offset: how many real messages the
// client already holds.
func (m *Mirror) NonSystemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !e.System {
			n++
		}
	}
	return n
}

// HasMore reports whether older history may remain.
func (m *Mirror) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

// BeginHistoryLoad marks a pagination fetch in flight; it returns false
// when a fetch is already running or history is exhausted, preventing
// duplicate overlapping fetches for the room.
func (m *Mirror) BeginHistoryLoad() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadingHistory || !m.hasMore {
		return false
	}
	m.loadingHistory = true
	return true
}

// EndHistoryLoad clears the in-flight flag.
func (m *Mirror) EndHistoryLoad() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadingHistory = false
}

// IsMine reports whether an entry was sent by this client, judged by
// the live connection id.
func (m *Mirror) IsMine(e Entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selfID != "" && e.SenderID == m.selfID
}

func (m *Mirror) containsID(id int64) bool {
	if id == 0 {
		return false
	}
	for _, e := range m.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
