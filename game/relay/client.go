package relay

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 64
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
)

// Event names on the wire.
const (
	EventConnected       = "connected"
	EventJoinRoom        = "join-room"
	EventDiceRoll        = "dice-roll"
	EventDiceStateUpdate = "dice-state-update"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
)

// Envelope is the message frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one connected browser.
type Client struct {
	ID   string
	Conn *websocket.Conn

	send   chan []byte
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	rooms  map[string]struct{}
	logger *zap.Logger
}

// NewClient wraps conn and starts its write goroutine. A nil conn gives a
// detached client whose frames stay queued, which is what tests want.
func NewClient(conn *websocket.Conn, logger *zap.Logger) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		Conn:   conn,
		send:   make(chan []byte, sendChanBuf),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
		logger: logger,
	}
	if conn != nil {
		go c.writePump()
	}
	return c
}

// writePump drains the send queue and pings the peer so dead connections
// are noticed by the read deadline.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Conn.Close()
	for {
		select {
		case data := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("relay write failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Emit queues an event for the client. data is marshalled unless it is
// already raw JSON. Frames are dropped when the queue is full.
func (c *Client) Emit(event string, data any) {
	var raw json.RawMessage
	switch v := data.(type) {
	case nil:
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		raw = b
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return
	}
	c.sendRaw(frame, event)
}

func (c *Client) sendRaw(frame []byte, event string) {
	if c.IsClosed() {
		return
	}
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.logger.Warn("relay send queue full, dropping frame",
			zap.String("client_id", c.ID),
			zap.String("event", event))
	}
}

// Close stops the write goroutine. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// IsClosed reports whether Close was called.
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// SetReadDeadline pushes the read deadline out by the idle window.
func (c *Client) SetReadDeadline() {
	_ = c.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}

func (c *Client) addRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

// Rooms lists the rooms the client has joined, sorted.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
