// Package presence is the Redis-backed directory of which identity
// occupies which connection and which room. Entries are created on
// join, updated on room switches, and pruned synchronously on
// disconnect; nothing here survives a flush or restart.
package presence

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
)

const (
	connsKey    = "presence:conns"
	roomKeyFmt  = "presence:room:%s"
	connKeyFmt  = "presence:conn:%s"
	fieldName   = "username"
	fieldRoom   = "room"
)

// Directory stores one hash per connection plus a membership set per
// room and a global set of connection ids. The room sets are the derived
// room directory; they are kept in step with the per-connection hashes
// inside each mutation.
type Directory struct {
	client *redis.Client
}

func NewDirectory(ctx context.Context, redisURL string) (*Directory, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Directory{client: client}, nil
}

// Join associates the connection with username and room. If the
// connection already occupies a different room it is removed from that
// room first; the prior room name is returned so the caller can
// broadcast the departure. Join is idempotent per connection.
func (d *Directory) Join(ctx context.Context, connID, username, room string) (string, error) {
	oldRoom, err := d.client.HGet(ctx, connKey(connID), fieldRoom).Result()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to read current room: %w", err)
	}

	pipe := d.client.TxPipeline()
	if oldRoom != "" && oldRoom != room {
		pipe.SRem(ctx, roomKey(oldRoom), connID)
	}
	pipe.HSet(ctx, connKey(connID), fieldName, username, fieldRoom, room)
	pipe.SAdd(ctx, connsKey, connID)
	pipe.SAdd(ctx, roomKey(room), connID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to join room: %w", err)
	}

	if oldRoom == room {
		return "", nil
	}
	return oldRoom, nil
}

// Leave removes the connection's entry entirely and returns it. ok is
// false when the connection was never present.
func (d *Directory) Leave(ctx context.Context, connID string) (domain.User, bool, error) {
	user, ok, err := d.Lookup(ctx, connID)
	if err != nil || !ok {
		return domain.User{}, ok, err
	}

	pipe := d.client.TxPipeline()
	if user.Room != "" {
		pipe.SRem(ctx, roomKey(user.Room), connID)
	}
	pipe.SRem(ctx, connsKey, connID)
	pipe.Del(ctx, connKey(connID))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.User{}, false, fmt.Errorf("failed to remove presence entry: %w", err)
	}
	return user, true, nil
}

// Lookup fetches the presence entry for a connection.
func (d *Directory) Lookup(ctx context.Context, connID string) (domain.User, bool, error) {
	fields, err := d.client.HGetAll(ctx, connKey(connID)).Result()
	if err != nil {
		return domain.User{}, false, fmt.Errorf("failed to read presence entry: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, false, nil
	}
	return domain.User{
		ID:       connID,
		Username: fields[fieldName],
		Room:     fields[fieldRoom],
	}, true, nil
}

// ListAll returns every connected identity, for the global user_list
// broadcast. Order is stable (username, then id).
func (d *Directory) ListAll(ctx context.Context) ([]domain.User, error) {
	ids, err := d.client.SMembers(ctx, connsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, ok, err := d.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// RoomMembers returns the connection ids currently in room.
func (d *Directory) RoomMembers(ctx context.Context, room string) ([]string, error) {
	return d.client.SMembers(ctx, roomKey(room)).Result()
}

// FlushAll clears the whole database. Test helper.
func (d *Directory) FlushAll(ctx context.Context) error {
	return d.client.FlushAll(ctx).Err()
}

func (d *Directory) Close() error {
	return d.client.Close()
}

func connKey(connID string) string { return fmt.Sprintf(connKeyFmt, connID) }
func roomKey(room string) string   { return fmt.Sprintf(roomKeyFmt, room) }
