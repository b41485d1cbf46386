package unit

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/config"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/presence"
)

// Requires live Redis, as configured in config_test.json.

var (
	directory *presence.Directory
	ctx       = context.Background()
)

func TestMain(m *testing.M) {
	cfg := config.MustReadConfig("../../config_test.json")
	var err error
	directory, err = presence.NewDirectory(ctx, cfg.RedisURL)
	if err != nil {
		panic("Failed to connect to Redis for tests: " + err.Error())
	}

	code := m.Run()

	_ = directory.FlushAll(ctx)
	directory.Close()

	os.Exit(code)
}

func clearPresence() {
	_ = directory.FlushAll(ctx)
}

func TestJoinCreatesEntry(t *testing.T) {
	clearPresence()

	oldRoom, err := directory.Join(ctx, "c1", "alice", "General")
	require.NoError(t, err)
	assert.Empty(t, oldRoom)

	user, ok, err := directory.Lookup(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "General", user.Room)
}

func TestJoinSwitchesRoom(t *testing.T) {
	clearPresence()

	_, err := directory.Join(ctx, "c1", "alice", "General")
	require.NoError(t, err)

	oldRoom, err := directory.Join(ctx, "c1", "alice", "Random")
	require.NoError(t, err)
	assert.Equal(t, "General", oldRoom)

	members, err := directory.RoomMembers(ctx, "General")
	require.NoError(t, err)
	assert.NotContains(t, members, "c1")

	members, err = directory.RoomMembers(ctx, "Random")
	require.NoError(t, err)
	assert.Contains(t, members, "c1")
}

func TestRejoinSameRoomIsIdempotent(t *testing.T) {
	clearPresence()

	_, err := directory.Join(ctx, "c1", "alice", "General")
	require.NoError(t, err)

	oldRoom, err := directory.Join(ctx, "c1", "alice", "General")
	require.NoError(t, err)
	assert.Empty(t, oldRoom)

	members, err := directory.RoomMembers(ctx, "General")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, members)
}

func TestLeaveRemovesEverything(t *testing.T) {
	clearPresence()

	_, err := directory.Join(ctx, "c1", "alice", "General")
	require.NoError(t, err)

	user, ok, err := directory.Leave(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)

	_, ok, err = directory.Lookup(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	members, err := directory.RoomMembers(ctx, "General")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestLeaveUnknownConnection(t *testing.T) {
	clearPresence()

	_, ok, err := directory.Leave(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAllSortedByUsername(t *testing.T) {
	clearPresence()

	_, _ = directory.Join(ctx, "c2", "bob", "General")
	_, _ = directory.Join(ctx, "c1", "alice", "Random")
	_, _ = directory.Join(ctx, "c3", "carol", "General")

	users, err := directory.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}
