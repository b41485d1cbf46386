package store

import (
	"fmt"
	"testing"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendText(l *MessageLog, senderID, room, text string) domain.Message {
	return l.Append(domain.Message{
		Sender:   "user-" + senderID,
		SenderID: senderID,
		Room:     room,
		Message:  text,
	})
}

func TestAppendAssignsStrictlyIncreasingIDs(t *testing.T) {
	log := NewMessageLog()

	var last int64
	for i := 0; i < 50; i++ {
		room := "general"
		if i%3 == 0 {
			room = "random"
		}
		msg := domain.Message{SenderID: "c1", Room: room, Message: "m"}
		if i%5 == 0 {
			// Interleave private sends; they share the same counter.
			msg.IsPrivate = true
			msg.To = "c2"
			msg.Room = ""
		}
		stored := log.Append(msg)
		assert.Greater(t, stored.ID, last)
		last = stored.ID
	}
	assert.Equal(t, int64(50), last, "counter starts at 1 and increments by 1")
}

func TestAppendStampsTimestampAndReactions(t *testing.T) {
	log := NewMessageLog()
	stored := appendText(log, "c1", "general", "hi")

	assert.NotEmpty(t, stored.Timestamp)
	assert.NotNil(t, stored.Reactions)
	assert.Empty(t, stored.Reactions)
}

func TestPageReturnsAscendingWindows(t *testing.T) {
	log := NewMessageLog()
	for i := 0; i < 25; i++ {
		appendText(log, "c1", "general", fmt.Sprintf("msg-%d", i))
	}

	// Most recent 10: ids 16..25 ascending.
	page := log.Page("general", 10, 0)
	require.Len(t, page, 10)
	assert.Equal(t, int64(16), page[0].ID)
	assert.Equal(t, int64(25), page[9].ID)

	// Next older window: ids 6..15.
	page = log.Page("general", 10, 10)
	require.Len(t, page, 10)
	assert.Equal(t, int64(6), page[0].ID)
	assert.Equal(t, int64(15), page[9].ID)

	// Final partial window, then empty past the end.
	page = log.Page("general", 10, 20)
	require.Len(t, page, 5)
	assert.Equal(t, int64(1), page[0].ID)
	assert.Empty(t, log.Page("general", 10, 25))
	assert.Empty(t, log.Page("general", 10, 1000))
}

func TestPageConcatenationHasNoDuplicates(t *testing.T) {
	log := NewMessageLog()
	for i := 0; i < 37; i++ {
		appendText(log, "c1", "general", "m")
	}

	seen := map[int64]bool{}
	var all []int64
	for offset := 0; ; offset += 10 {
		page := log.Page("general", 10, offset)
		if len(page) == 0 {
			break
		}
		for _, msg := range page {
			assert.False(t, seen[msg.ID], "id %d repeated across pages", msg.ID)
			seen[msg.ID] = true
			all = append(all, msg.ID)
		}
	}
	require.Len(t, all, 37)
}

func TestPageScopesToRoomAndExcludesPrivate(t *testing.T) {
	log := NewMessageLog()
	appendText(log, "c1", "general", "public")
	appendText(log, "c1", "random", "elsewhere")
	log.Append(domain.Message{SenderID: "c1", To: "c2", IsPrivate: true, Room: "general", Message: "psst"})

	page := log.Page("general", 20, 0)
	require.Len(t, page, 1)
	assert.Equal(t, "public", page[0].Message)
}

func TestToggleReactionIsAnInvolution(t *testing.T) {
	log := NewMessageLog()
	msg := appendText(log, "c1", "general", "hi")

	reactions, room, ok := log.ToggleReaction("c2", msg.ID, "👍")
	require.True(t, ok)
	assert.Equal(t, "general", room)
	assert.Equal(t, []string{"c2"}, reactions["👍"])

	reactions, _, ok = log.ToggleReaction("c2", msg.ID, "👍")
	require.True(t, ok)
	assert.Empty(t, reactions["👍"], "second toggle restores the original state")
}

func TestToggleReactionIsCommutativeAcrossActors(t *testing.T) {
	log := NewMessageLog()
	msg := appendText(log, "c1", "general", "hi")

	log.ToggleReaction("c2", msg.ID, "❤️")
	reactions, _, ok := log.ToggleReaction("c3", msg.ID, "❤️")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"c2", "c3"}, reactions["❤️"])

	// Removing one actor leaves the other untouched.
	reactions, _, _ = log.ToggleReaction("c2", msg.ID, "❤️")
	assert.Equal(t, []string{"c3"}, reactions["❤️"])
}

func TestToggleReactionMissingMessageIsNoOp(t *testing.T) {
	log := NewMessageLog()
	_, _, ok := log.ToggleReaction("c1", 999, "👍")
	assert.False(t, ok)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	log := NewMessageLog()
	m1 := appendText(log, "sender", "general", "one")
	m2 := appendText(log, "sender", "general", "two")

	receipts := log.MarkRead("reader", "general", m2.ID)
	require.Len(t, receipts, 2)
	assert.Equal(t, ReadReceipt{MessageID: m1.ID, SenderID: "sender"}, receipts[0])

	// Same receipt again: nothing new to notify.
	assert.Empty(t, log.MarkRead("reader", "general", m2.ID))

	stored, _ := log.Get(m1.ID)
	assert.Equal(t, []string{"reader"}, stored.ReadBy)
}

func TestMarkReadNeverMarksOwnMessages(t *testing.T) {
	log := NewMessageLog()
	own := appendText(log, "reader", "general", "mine")
	other := appendText(log, "sender", "general", "theirs")

	receipts := log.MarkRead("reader", "general", other.ID)
	require.Len(t, receipts, 1)
	assert.Equal(t, other.ID, receipts[0].MessageID)

	stored, _ := log.Get(own.ID)
	assert.Empty(t, stored.ReadBy)
}

func TestMarkReadSkipsPrivateMessages(t *testing.T) {
	log := NewMessageLog()
	private := log.Append(domain.Message{SenderID: "sender", To: "c9", IsPrivate: true, Room: "general", Message: "psst"})
	public := appendText(log, "sender", "general", "hello")

	receipts := log.MarkRead("reader", "general", public.ID)
	require.Len(t, receipts, 1)
	assert.Equal(t, public.ID, receipts[0].MessageID)

	stored, _ := log.Get(private.ID)
	assert.Empty(t, stored.ReadBy)
}

func TestMarkReadHonorsUpperBoundAndRoom(t *testing.T) {
	log := NewMessageLog()
	m1 := appendText(log, "sender", "general", "old")
	appendText(log, "sender", "random", "other room")
	m3 := appendText(log, "sender", "general", "new")

	receipts := log.MarkRead("reader", "general", m1.ID)
	require.Len(t, receipts, 1)
	assert.Equal(t, m1.ID, receipts[0].MessageID)

	stored, _ := log.Get(m3.ID)
	assert.Empty(t, stored.ReadBy, "messages past lastMessageId stay unread")
}

func TestPageReturnsCopies(t *testing.T) {
	log := NewMessageLog()
	msg := appendText(log, "c1", "general", "hi")
	log.ToggleReaction("c2", msg.ID, "👍")

	page := log.Page("general", 1, 0)
	require.Len(t, page, 1)
	page[0].Reactions["👍"] = append(page[0].Reactions["👍"], "intruder")

	stored, _ := log.Get(msg.ID)
	assert.Equal(t, []string{"c2"}, stored.Reactions["👍"], "caller mutation must not leak into the log")
}
