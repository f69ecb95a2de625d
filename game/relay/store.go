// Package relay is a best-effort broadcaster for live dice state between the
// browsers seated at the same room. It is not a source of truth: nothing here
// is ordered or delivered across reconnects.
package relay

import (
	"context"

	"github.com/kasuganosora/goblintable/cache"
)

// RoomStore holds room membership and the last dice state seen per room.
// A room exists while it has at least one member; removing the last member
// forgets the room and its dice state.
type RoomStore interface {
	Join(ctx context.Context, room, member string) error
	// Leave removes member and returns how many members remain.
	Leave(ctx context.Context, room, member string) (int64, error)
	Exists(ctx context.Context, room string) (bool, error)
	Members(ctx context.Context, room string) ([]string, error)
	SetDiceState(ctx context.Context, room string, state []byte) error
	// DiceState returns ok=false when no state was ever stored for room.
	DiceState(ctx context.Context, room string) (state []byte, ok bool, err error)
	Rooms(ctx context.Context) ([]string, error)
}

const (
	keyRooms  = "relay:rooms"
	keyPrefix = "relay:room:"
)

func membersKey(room string) string { return keyPrefix + room + ":members" }
func diceKey(room string) string    { return keyPrefix + room + ":dice" }

// CacheStore keeps rooms in a cache.Cache. Over the local cache it lives only
// as long as the process; over Redis it is shared by every instance.
type CacheStore struct {
	c cache.Cache
}

// NewCacheStore creates a RoomStore on top of c.
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{c: c}
}

func (s *CacheStore) Join(ctx context.Context, room, member string) error {
	if err := s.c.SAdd(ctx, membersKey(room), member); err != nil {
		return err
	}
	return s.c.SAdd(ctx, keyRooms, room)
}

func (s *CacheStore) Leave(ctx context.Context, room, member string) (int64, error) {
	if err := s.c.SRem(ctx, membersKey(room), member); err != nil {
		return 0, err
	}
	n, err := s.c.SCard(ctx, membersKey(room))
	if err != nil || n > 0 {
		return n, err
	}
	if err := s.c.Del(ctx, membersKey(room), diceKey(room)); err != nil {
		return 0, err
	}
	return 0, s.c.SRem(ctx, keyRooms, room)
}

func (s *CacheStore) Exists(ctx context.Context, room string) (bool, error) {
	n, err := s.c.SCard(ctx, membersKey(room))
	return n > 0, err
}

func (s *CacheStore) Members(ctx context.Context, room string) ([]string, error) {
	return s.c.SMembers(ctx, membersKey(room))
}

func (s *CacheStore) SetDiceState(ctx context.Context, room string, state []byte) error {
	return s.c.Set(ctx, diceKey(room), string(state), 0)
}

func (s *CacheStore) DiceState(ctx context.Context, room string) ([]byte, bool, error) {
	v, err := s.c.Get(ctx, diceKey(room))
	if cache.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (s *CacheStore) Rooms(ctx context.Context) ([]string, error) {
	return s.c.SMembers(ctx, keyRooms)
}
