package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndStop(t *testing.T) {
	agg := NewAggregator()

	users := agg.Set("c1", "alice", "general", true)
	assert.Equal(t, []string{"alice"}, users)

	users = agg.Set("c2", "bob", "general", true)
	assert.Equal(t, []string{"alice", "bob"}, users)

	// After a false signal the identity is never listed again.
	users = agg.Set("c1", "alice", "general", false)
	assert.Equal(t, []string{"bob"}, users)
	assert.Equal(t, []string{"bob"}, agg.Room("general"))
}

func TestRoomsAreIndependent(t *testing.T) {
	agg := NewAggregator()
	agg.Set("c1", "alice", "general", true)
	agg.Set("c2", "bob", "random", true)

	assert.Equal(t, []string{"alice"}, agg.Room("general"))
	assert.Equal(t, []string{"bob"}, agg.Room("random"))
}

func TestStopIsIdempotent(t *testing.T) {
	agg := NewAggregator()
	agg.Set("c1", "alice", "general", false)
	assert.Empty(t, agg.Room("general"))
}

func TestClearOnDisconnect(t *testing.T) {
	agg := NewAggregator()
	agg.Set("c1", "alice", "general", true)
	agg.Set("c2", "bob", "general", true)

	room, remaining, ok := agg.Clear("c1")
	assert.True(t, ok)
	assert.Equal(t, "general", room)
	assert.Equal(t, []string{"bob"}, remaining)

	// A connection without an entry is a no-op.
	_, _, ok = agg.Clear("c1")
	assert.False(t, ok)
}
