package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kasuganosora/goblintable/cache"
	"go.uber.org/zap"
)

// fanoutChannel carries broadcasts between instances sharing a PubSub.
const fanoutChannel = "relay:fanout"

const maxRoomIDLen = 128

// ErrInvalidRoom is returned for an empty or oversized room id.
var ErrInvalidRoom = errors.New("relay: invalid room id")

var emptyDiceState = json.RawMessage(`[]`)

// frame is a broadcast as it travels over the fan-out channel. To is fixed
// when the broadcast is made, so members who join later never see it.
type frame struct {
	Node  string          `json:"node"`
	Room  string          `json:"room"`
	To    []string        `json:"to"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks the clients connected to this instance and which rooms they
// sit in. Room membership itself lives in the RoomStore.
type Hub struct {
	store  RoomStore
	pubsub cache.PubSub
	node   string
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	local   map[string]map[string]*Client // room → client id → client
}

// NewHub creates a Hub. With a nil ps broadcasts stay on this instance.
func NewHub(store RoomStore, ps cache.PubSub, logger *zap.Logger) *Hub {
	return &Hub{
		store:   store,
		pubsub:  ps,
		node:    uuid.NewString(),
		logger:  logger,
		clients: make(map[string]*Client),
		local:   make(map[string]map[string]*Client),
	}
}

// Start subscribes to the fan-out channel and delivers remote broadcasts
// until ctx is cancelled. Without a PubSub it does nothing.
func (h *Hub) Start(ctx context.Context) error {
	if h.pubsub == nil {
		return nil
	}
	ch, cancel, err := h.pubsub.Subscribe(ctx, fanoutChannel)
	if err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	go func() {
		defer cancel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var f frame
				if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
					h.logger.Warn("relay: malformed fan-out frame", zap.Error(err))
					continue
				}
				h.deliver(f)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Register makes c known to the hub and greets it with its id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	c.Emit(EventConnected, c.ID)
}

// ClientCount is the number of clients connected to this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount is the number of rooms with at least one member anywhere.
func (h *Hub) RoomCount(ctx context.Context) (int, error) {
	rooms, err := h.store.Rooms(ctx)
	return len(rooms), err
}

func checkRoom(room string) (string, error) {
	room = strings.TrimSpace(room)
	if room == "" || len(room) > maxRoomIDLen {
		return "", ErrInvalidRoom
	}
	return room, nil
}

// JoinRoom adds c to room, replays the room's dice state to c, and tells
// the other members.
func (h *Hub) JoinRoom(ctx context.Context, c *Client, room string) error {
	room, err := checkRoom(room)
	if err != nil {
		return err
	}
	if err := h.store.Join(ctx, room, c.ID); err != nil {
		return err
	}
	c.addRoom(room)

	h.mu.Lock()
	members := h.local[room]
	if members == nil {
		members = make(map[string]*Client)
		h.local[room] = members
	}
	members[c.ID] = c
	h.mu.Unlock()

	state, ok, err := h.store.DiceState(ctx, room)
	if err != nil {
		return err
	}
	if !ok {
		state = emptyDiceState
	}
	c.Emit(EventDiceStateUpdate, json.RawMessage(state))

	h.logger.Debug("relay join", zap.String("room", room), zap.String("client_id", c.ID))
	return h.broadcast(ctx, room, c.ID, EventUserJoined, c.ID)
}

// DiceRoll stores state as the room's latest and forwards it to everyone
// else in the room. Rolls for rooms that do not exist are dropped.
func (h *Hub) DiceRoll(ctx context.Context, c *Client, room string, state json.RawMessage) error {
	room, err := checkRoom(room)
	if err != nil {
		return err
	}
	if len(state) == 0 || !json.Valid(state) {
		return fmt.Errorf("relay: dice state is not valid JSON")
	}
	ok, err := h.store.Exists(ctx, room)
	if err != nil || !ok {
		return err
	}
	if err := h.store.SetDiceState(ctx, room, state); err != nil {
		return err
	}
	return h.broadcast(ctx, room, c.ID, EventDiceStateUpdate, state)
}

// Disconnect removes c from every room it joined, telling the remaining
// members, and forgets it.
func (h *Hub) Disconnect(ctx context.Context, c *Client) {
	c.Close()

	h.mu.Lock()
	delete(h.clients, c.ID)
	for _, room := range c.Rooms() {
		if members := h.local[room]; members != nil {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.local, room)
			}
		}
	}
	h.mu.Unlock()

	for _, room := range c.Rooms() {
		remaining, err := h.store.Leave(ctx, room, c.ID)
		if err != nil {
			h.logger.Warn("relay leave failed", zap.String("room", room), zap.Error(err))
			continue
		}
		if remaining > 0 {
			if err := h.broadcast(ctx, room, c.ID, EventUserLeft, c.ID); err != nil {
				h.logger.Warn("relay broadcast failed", zap.String("room", room), zap.Error(err))
			}
		}
	}
	h.logger.Debug("relay client gone", zap.String("client_id", c.ID))
}

func (h *Hub) broadcast(ctx context.Context, room, except, event string, data any) error {
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = b
	}
	members, err := h.store.Members(ctx, room)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(members))
	for _, m := range members {
		if m != except {
			to = append(to, m)
		}
	}
	if len(to) == 0 {
		return nil
	}
	f := frame{Node: h.node, Room: room, To: to, Event: event, Data: raw}
	if h.pubsub == nil {
		h.deliver(f)
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return h.pubsub.Publish(ctx, fanoutChannel, string(payload))
}

// deliver hands f to the recipients in f.To that are connected here and
// still sit in f.Room.
func (h *Hub) deliver(f frame) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(f.To))
	for _, id := range f.To {
		if c, ok := h.local[f.Room][id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Emit(f.Event, f.Data)
	}
}
