// Package typing tracks which identities are currently flagged as
// typing, per room. Expiry is client-driven: the server trusts explicit
// stop signals and only removes entries itself on disconnect.
package typing

import (
	"sort"
	"sync"
)

type entry struct {
	username string
	room     string
}

// Aggregator is the per-room typing set, keyed by connection id.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string]entry)}
}

// Set inserts or removes the connection's typing flag and returns the
// recomputed username list for the room.
func (a *Aggregator) Set(connID, username, room string, isTyping bool) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if isTyping {
		a.entries[connID] = entry{username: username, room: room}
	} else {
		delete(a.entries, connID)
	}
	return a.roomLocked(room)
}

// Clear drops the connection's entry, if any, and returns the room it
// occupied along with the room's remaining typers. ok is false when the
// connection had no entry.
func (a *Aggregator) Clear(connID string) (string, []string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[connID]
	if !ok {
		return "", nil, false
	}
	delete(a.entries, connID)
	return e.room, a.roomLocked(e.room), true
}

// Room returns the usernames currently typing in room.
func (a *Aggregator) Room(room string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roomLocked(room)
}

func (a *Aggregator) roomLocked(room string) []string {
	users := []string{}
	for _, e := range a.entries {
		if e.room == room {
			users = append(users, e.username)
		}
	}
	sort.Strings(users)
	return users
}
