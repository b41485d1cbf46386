package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

type recordingNotifier struct {
	notifications []string
	beeps         int
}

func (r *recordingNotifier) Notify(title, body string) {
	r.notifications = append(r.notifications, title+": "+body)
}

func (r *recordingNotifier) Beep() { r.beeps++ }

func newTestMirror() *Mirror {
	m := NewMirror(nil)
	m.SetSelfID("self")
	m.EnterRoom("general")
	return m
}

func serverMessage(id int64, senderID, text string) domain.Message {
	return domain.Message{
		ID:       id,
		Sender:   "user-" + senderID,
		SenderID: senderID,
		Room:     "general",
		Message:  text,
	}
}

func TestOptimisticSendPromotedByAck(t *testing.T) {
	m := newTestMirror()

	m.AddOptimistic("tmp-1", domain.Message{Sender: "alice", Room: "general", Message: "hi"})

	entries := m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, DeliveryPending, entries[0].Delivery)
	assert.Zero(t, entries[0].ID)

	m.Acknowledge("tmp-1", domain.OKAck(7, "2026-08-28T10:00:00Z"))

	entries = m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, DeliveryAcknowledged, entries[0].Delivery)
	assert.Equal(t, int64(7), entries[0].ID)
	assert.Equal(t, "2026-08-28T10:00:00Z", entries[0].Timestamp)
}

func TestFailedSendStaysVisible(t *testing.T) {
	m := newTestMirror()

	m.AddOptimistic("tmp-1", domain.Message{Sender: "alice", Message: "hi", IsPrivate: true, To: "ghost"})
	m.Acknowledge("tmp-1", domain.ErrorAck("Recipient offline."))

	entries := m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, DeliveryFailed, entries[0].Delivery)
	assert.Zero(t, entries[0].ID)
}

func TestOwnBroadcastBeforeAckDoesNotDuplicate(t *testing.T) {
	m := newTestMirror()

	m.AddOptimistic("tmp-1", domain.Message{Sender: "alice", Room: "general", Message: "hi"})

	// Fan-out copy can land before the ack.
	m.ApplyMessage(serverMessage(3, "self", "hi"))

	entries := m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, DeliveryPending, entries[0].Delivery)

	m.Acknowledge("tmp-1", domain.OKAck(3, "2026-08-28T10:00:00Z"))
	entries = m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, DeliveryAcknowledged, entries[0].Delivery)
}

func TestAckBeforeOwnBroadcastDeduplicates(t *testing.T) {
	m := newTestMirror()

	m.AddOptimistic("tmp-1", domain.Message{Sender: "alice", Room: "general", Message: "hi"})
	m.Acknowledge("tmp-1", domain.OKAck(3, "2026-08-28T10:00:00Z"))

	// Broadcast copy arrives second; its id is already held.
	m.ApplyMessage(serverMessage(3, "self", "hi"))

	assert.Len(t, m.Messages(), 1)
}

func TestDuplicateDeliveryIgnored(t *testing.T) {
	m := newTestMirror()

	m.ApplyMessage(serverMessage(1, "c2", "hello"))
	m.ApplyMessage(serverMessage(1, "c2", "hello"))

	assert.Len(t, m.Messages(), 1)
}

func TestMergeOlderPrependsAfterSystemLines(t *testing.T) {
	m := newTestMirror()

	m.AddSystem("bob joined the room")
	m.ApplyMessage(serverMessage(10, "c2", "latest"))

	page := []domain.Message{
		serverMessage(8, "c2", "older-1"),
		serverMessage(9, "c2", "older-2"),
		serverMessage(10, "c2", "latest"), // overlap, must drop
	}
	m.MergeOlder(page)

	entries := m.Messages()
	require.Len(t, entries, 4)
	assert.True(t, entries[0].System)
	assert.Equal(t, int64(8), entries[1].ID)
	assert.Equal(t, int64(9), entries[2].ID)
	assert.Equal(t, int64(10), entries[3].ID)
	assert.True(t, m.HasMore())
}

func TestEmptyPageEndsHistoryUntilRoomReentry(t *testing.T) {
	m := newTestMirror()

	require.True(t, m.BeginHistoryLoad())
	m.MergeOlder(nil)
	m.EndHistoryLoad()

	assert.False(t, m.HasMore())
	assert.False(t, m.BeginHistoryLoad())

	m.EnterRoom("general")
	assert.True(t, m.HasMore())
	assert.True(t, m.BeginHistoryLoad())
}

func TestHistoryLoadGuardBlocksOverlap(t *testing.T) {
	m := newTestMirror()

	require.True(t, m.BeginHistoryLoad())
	assert.False(t, m.BeginHistoryLoad())
	m.EndHistoryLoad()
	assert.True(t, m.BeginHistoryLoad())
}

func TestUnreadAccumulatesWhileHiddenAndClearsOnVisible(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewMirror(notifier)
	m.SetSelfID("self")
	m.EnterRoom("general")

	m.SetVisible(false)
	m.ApplyMessage(serverMessage(1, "c2", "one"))
	m.ApplyMessage(serverMessage(2, "c2", "two"))

	assert.Equal(t, 2, m.Unread())
	assert.Equal(t, "(2) Real-Time Chat (general)", m.Title())
	assert.Len(t, notifier.notifications, 2)
	assert.Equal(t, 2, notifier.beeps)

	m.SetVisible(true)
	assert.Equal(t, 0, m.Unread())
	assert.Equal(t, "Real-Time Chat (general)", m.Title())

	// Visible arrivals never count or notify.
	m.ApplyMessage(serverMessage(3, "c2", "three"))
	assert.Equal(t, 0, m.Unread())
	assert.Len(t, notifier.notifications, 2)
}

func TestReactionEventReplacesMap(t *testing.T) {
	m := newTestMirror()
	m.ApplyMessage(serverMessage(1, "c2", "hello"))

	m.ApplyReaction(domain.ReactionEvent{
		MessageID:    1,
		NewReactions: map[string][]string{"❤️": {"c3"}},
	})
	entries := m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string][]string{"❤️": {"c3"}}, entries[0].Reactions)

	// Unknown id is a silent no-op.
	m.ApplyReaction(domain.ReactionEvent{MessageID: 99, NewReactions: map[string][]string{"👍": {"c3"}}})
}

func TestReadEventAddsReaderOnce(t *testing.T) {
	m := newTestMirror()
	m.ApplyMessage(serverMessage(1, "c2", "hello"))

	m.ApplyRead(domain.ReadEvent{MessageID: 1, ReaderID: "c3"})
	m.ApplyRead(domain.ReadEvent{MessageID: 1, ReaderID: "c3"})

	entries := m.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"c3"}, entries[0].ReadBy)
}

func TestIsMineJudgedByLiveID(t *testing.T) {
	m := newTestMirror()

	m.ApplyMessage(serverMessage(1, "self", "mine"))
	m.ApplyMessage(serverMessage(2, "c2", "theirs"))

	entries := m.Messages()
	require.Len(t, entries, 2)
	assert.True(t, m.IsMine(entries[0]))
	assert.False(t, m.IsMine(entries[1]))
}
