package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/goblintable/game/relay"
)

type diceRollData struct {
	RoomID    roomID          `json:"roomId"`
	DiceState json.RawMessage `json:"diceState"`
}

// roomID accepts a room id sent as a JSON string or number.
type roomID string

func (r *roomID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = roomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("room id must be a string or number: %s", b)
	}
	*r = roomID(n.String())
	return nil
}

// RegisterRelayHandlers wires the relay events to hub.
func RegisterRelayHandlers(r *Router, hub *relay.Hub) {
	r.On(relay.EventJoinRoom, func(ctx context.Context, c *relay.Client, data json.RawMessage) error {
		var room roomID
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		return hub.JoinRoom(ctx, c, string(room))
	})
	r.On(relay.EventDiceRoll, func(ctx context.Context, c *relay.Client, data json.RawMessage) error {
		var d diceRollData
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		return hub.DiceRoll(ctx, c, string(d.RoomID), d.DiceState)
	})
}
