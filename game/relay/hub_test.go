package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kasuganosora/goblintable/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub(t *testing.T, withPubSub bool) (*Hub, *CacheStore) {
	t.Helper()
	c, ps := testutil.SetupTestCache(t)
	store := NewCacheStore(c)
	if !withPubSub {
		ps = nil
	}
	return NewHub(store, ps, testutil.Logger()), store
}

func newTestClient(h *Hub) *Client {
	c := NewClient(nil, testutil.Logger())
	h.Register(c)
	// Drop the greeting.
	<-c.send
	return c
}

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: no frame", c.ID)
		return Envelope{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("client %s: unexpected frame %s", c.ID, raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegister_GreetsWithID(t *testing.T) {
	h, _ := newHub(t, false)
	c := NewClient(nil, testutil.Logger())
	h.Register(c)

	env := recv(t, c)
	assert.Equal(t, EventConnected, env.Event)
	assert.JSONEq(t, `"`+c.ID+`"`, string(env.Data))
	assert.Equal(t, 1, h.ClientCount())
}

func TestJoinRoom_ReplaysEmptyStateAndAnnounces(t *testing.T) {
	h, _ := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)
	b := newTestClient(h)

	require.NoError(t, h.JoinRoom(ctx, a, "mesa"))
	env := recv(t, a)
	assert.Equal(t, EventDiceStateUpdate, env.Event)
	assert.JSONEq(t, `[]`, string(env.Data))
	assertSilent(t, a)

	require.NoError(t, h.JoinRoom(ctx, b, "mesa"))
	assert.Equal(t, EventDiceStateUpdate, recv(t, b).Event)

	joined := recv(t, a)
	assert.Equal(t, EventUserJoined, joined.Event)
	assert.JSONEq(t, `"`+b.ID+`"`, string(joined.Data))
	assertSilent(t, b)
}

func TestJoinRoom_InvalidRoom(t *testing.T) {
	h, _ := newHub(t, false)
	c := newTestClient(h)
	assert.ErrorIs(t, h.JoinRoom(context.Background(), c, "   "), ErrInvalidRoom)
}

func TestDiceRoll_StoresAndForwardsToOthers(t *testing.T) {
	h, store := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)
	b := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, a, "mesa"))
	require.NoError(t, h.JoinRoom(ctx, b, "mesa"))
	recv(t, a) // state
	recv(t, a) // b joined
	recv(t, b) // state

	state := json.RawMessage(`[{"id":1,"faces":6,"result":4,"selected":true}]`)
	require.NoError(t, h.DiceRoll(ctx, a, "mesa", state))

	env := recv(t, b)
	assert.Equal(t, EventDiceStateUpdate, env.Event)
	assert.JSONEq(t, string(state), string(env.Data))
	assertSilent(t, a)

	stored, ok, err := store.DiceState(ctx, "mesa")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, string(state), string(stored))

	// A late joiner gets the last state.
	c := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, c, "mesa"))
	late := recv(t, c)
	assert.JSONEq(t, string(state), string(late.Data))
}

func TestDiceRoll_UnknownRoomIgnored(t *testing.T) {
	h, store := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)

	require.NoError(t, h.DiceRoll(ctx, a, "ghost", json.RawMessage(`[]`)))
	_, ok, err := store.DiceState(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiceRoll_RejectsInvalidJSON(t *testing.T) {
	h, _ := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, a, "mesa"))
	assert.Error(t, h.DiceRoll(ctx, a, "mesa", json.RawMessage(`{oops`)))
}

func TestDisconnect_NotifiesAndForgetsEmptyRoom(t *testing.T) {
	h, store := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)
	b := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, a, "mesa"))
	require.NoError(t, h.JoinRoom(ctx, b, "mesa"))
	require.NoError(t, h.DiceRoll(ctx, a, "mesa", json.RawMessage(`[1]`)))
	recv(t, a)
	recv(t, a)
	recv(t, b)
	recv(t, b)

	h.Disconnect(ctx, b)
	left := recv(t, a)
	assert.Equal(t, EventUserLeft, left.Event)
	assert.JSONEq(t, `"`+b.ID+`"`, string(left.Data))
	assert.True(t, b.IsClosed())
	assert.Equal(t, 1, h.ClientCount())

	n, err := h.RoomCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h.Disconnect(ctx, a)
	n, err = h.RoomCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := store.DiceState(ctx, "mesa")
	require.NoError(t, err)
	assert.False(t, ok, "dice state must be dropped with the room")
}

func TestRoomsAreIsolated(t *testing.T) {
	h, _ := newHub(t, false)
	ctx := context.Background()
	a := newTestClient(h)
	b := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, a, "um"))
	require.NoError(t, h.JoinRoom(ctx, b, "dois"))
	recv(t, a)
	recv(t, b)

	require.NoError(t, h.DiceRoll(ctx, a, "um", json.RawMessage(`[6]`)))
	assertSilent(t, b)
}

func TestFanOutAcrossHubs(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	store := NewCacheStore(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h1 := NewHub(store, ps, testutil.Logger())
	h2 := NewHub(store, ps, testutil.Logger())
	require.NoError(t, h1.Start(ctx))
	require.NoError(t, h2.Start(ctx))

	a := newTestClient(h1)
	b := newTestClient(h2)
	require.NoError(t, h1.JoinRoom(ctx, a, "mesa"))
	recv(t, a)
	require.NoError(t, h2.JoinRoom(ctx, b, "mesa"))
	recv(t, b)

	joined := recv(t, a)
	assert.Equal(t, EventUserJoined, joined.Event)

	require.NoError(t, h2.DiceRoll(ctx, b, "mesa", json.RawMessage(`[3]`)))
	upd := recv(t, a)
	assert.Equal(t, EventDiceStateUpdate, upd.Event)
	assert.JSONEq(t, `[3]`, string(upd.Data))
	assertSilent(t, b)
}

func TestJoinRoom_PubSubOnlyAnnouncesToEarlierMembers(t *testing.T) {
	h, _ := newHub(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))

	a := newTestClient(h)
	b := newTestClient(h)
	require.NoError(t, h.JoinRoom(ctx, a, "mesa"))
	require.NoError(t, h.JoinRoom(ctx, b, "mesa"))

	assert.Equal(t, EventDiceStateUpdate, recv(t, a).Event)
	assert.Equal(t, EventDiceStateUpdate, recv(t, b).Event)

	joined := recv(t, a)
	assert.Equal(t, EventUserJoined, joined.Event)
	assert.JSONEq(t, `"`+b.ID+`"`, string(joined.Data))
	assertSilent(t, a)
	assertSilent(t, b)
}
