package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/kasuganosora/goblintable/game/relay"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/goblin"
	"github.com/kasuganosora/goblintable/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type player struct {
	ID         int64   `json:"id"`
	Nickname   string  `json:"nickname"`
	GoblinSeed *string `json:"goblinSeed"`
	IsMaster   bool    `json:"isMaster"`
}

func TestE2E_TableLifecycle(t *testing.T) {
	ts := NewTestServer(t)

	created := MustMutation[table.CreateResult](t, ts, "tables.createTable", map[string]any{
		"slug": "covil-do-rei", "sessionId": "sess-master", "nickname": "Mestre",
	})
	joined := MustMutation[table.JoinResult](t, ts, "players.joinTable", map[string]any{
		"slug": "covil-do-rei", "sessionId": "sess-gob", "nickname": "Bolota",
	})
	require.Equal(t, created.TableID, joined.TableID)

	// Rejoin renames instead of taking a second seat.
	again := MustMutation[table.JoinResult](t, ts, "players.joinTable", map[string]any{
		"slug": "covil-do-rei", "sessionId": "sess-gob", "nickname": "Bolota II",
	})
	assert.Equal(t, joined.PlayerID, again.PlayerID)

	// Roll a goblin and attach its seed to the seat.
	resp := ts.Do(t, http.MethodGet, "/api/goblins/random", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g goblin.Goblin
	ReadJSON(t, resp, &g)
	MustMutation[table.UpdateResult](t, ts, "players.updateGoblin", map[string]any{
		"tableId": created.TableID, "sessionId": "sess-gob", "goblinSeed": g.Seed,
	})

	players := MustQuery[[]player](t, ts, "players.getTablePlayers", map[string]any{"tableId": created.TableID})
	require.Len(t, players, 2)
	assert.True(t, players[0].IsMaster)
	assert.Equal(t, "Bolota II", players[1].Nickname)
	require.NotNil(t, players[1].GoblinSeed)

	resp = ts.Do(t, http.MethodGet, "/api/goblins/decode?seed="+url.QueryEscape(*players[1].GoblinSeed), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var back goblin.Goblin
	ReadJSON(t, resp, &back)
	assert.Equal(t, g.Name, back.Name)
	assert.Equal(t, g.Attributes, back.Attributes)

	// Chat and dice.
	MustMutation[table.SendResult](t, ts, "messages.sendMessage", map[string]any{
		"tableId": created.TableID, "sessionId": "sess-gob", "content": "  Grrr!  ",
	})
	roll := MustMutation[table.RollResult](t, ts, "diceRolls.rollDice", map[string]any{
		"tableId": created.TableID, "sessionId": "sess-master", "dice": "D6",
	})
	assert.GreaterOrEqual(t, roll.Result, 1)
	assert.LessOrEqual(t, roll.Result, 6)

	msgs := MustQuery[[]model.Message](t, ts, "messages.getMessages", map[string]any{"tableId": created.TableID})
	require.Len(t, msgs, 1)
	assert.Equal(t, "Grrr!", msgs[0].Content)
	assert.Equal(t, "Bolota II", msgs[0].Nickname)

	rolls := MustQuery[[]model.DiceRoll](t, ts, "diceRolls.getDiceRolls", map[string]any{"tableId": created.TableID})
	require.Len(t, rolls, 1)
	assert.Equal(t, "d6", rolls[0].Dice)

	// Non-master cannot kick; master can.
	code, res := ts.Mutation(t, "players.kickPlayer", map[string]any{
		"tableId": created.TableID, "sessionId": "sess-gob", "playerId": created.PlayerID,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, table.CodeForbidden, res.ErrorCode)

	kicked := MustMutation[table.KickResult](t, ts, "players.kickPlayer", map[string]any{
		"tableId": created.TableID, "sessionId": "sess-master", "playerId": joined.PlayerID,
	})
	assert.True(t, kicked.Kicked)
	assert.False(t, kicked.Cleaned)

	// The master leaving through the beacon path empties and removes the table.
	resp = ts.PostJSON(t, "/leave", map[string]any{"tableId": created.TableID, "sessionId": "sess-master"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	code, res = ts.Query(t, "tables.getTableBySlug", map[string]any{"slug": "covil-do-rei"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(res.Value))
	assert.Empty(t, MustQuery[[]model.Message](t, ts, "messages.getMessages", map[string]any{"tableId": created.TableID}))

	// Every mutation was audited, without session ids.
	ts.Audit.Stop(context.Background())
	var logs []model.AuditLog
	require.NoError(t, ts.Infra.DB.Order("id").Find(&logs).Error)
	require.Len(t, logs, 8)
	assert.Equal(t, "tables.createTable", logs[0].Action)
	assert.Equal(t, table.CodeForbidden, logs[6].ErrorCode)
	for _, l := range logs {
		assert.NotContains(t, string(l.Request), "sess-")
	}
}

func TestE2E_CapacityAndHistoryCaps(t *testing.T) {
	ts := NewTestServer(t)
	created := MustMutation[table.CreateResult](t, ts, "tables.createTable", map[string]any{
		"slug": "cheia", "sessionId": "s0", "nickname": "M",
	})
	for i := 1; i < 12; i++ {
		MustMutation[table.JoinResult](t, ts, "players.joinTable", map[string]any{
			"slug": "cheia", "sessionId": fmt.Sprintf("s%d", i), "nickname": fmt.Sprintf("G%d", i),
		})
	}
	code, res := ts.Mutation(t, "players.joinTable", map[string]any{
		"slug": "cheia", "sessionId": "s12", "nickname": "late",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, table.CodeCapacityExceeded, res.ErrorCode)

	for i := 0; i < 55; i++ {
		MustMutation[table.RollResult](t, ts, "diceRolls.rollDice", map[string]any{
			"tableId": created.TableID, "sessionId": "s1", "dice": "d100",
		})
	}
	rolls := MustQuery[[]model.DiceRoll](t, ts, "diceRolls.getDiceRolls", map[string]any{"tableId": created.TableID})
	assert.Len(t, rolls, 50)
}

func TestE2E_RelayAcrossInstances(t *testing.T) {
	infra := NewInfra(t)
	a := NewTestServerOn(t, infra)
	b := NewTestServerOn(t, infra)

	alice := a.DialRelay(t)
	alice.Send(relay.EventJoinRoom, "sala")
	assert.JSONEq(t, `[]`, string(alice.Expect(relay.EventDiceStateUpdate).Data))

	bob := b.DialRelay(t)
	bob.Send(relay.EventJoinRoom, "sala")
	bob.Expect(relay.EventDiceStateUpdate)

	env := alice.Expect(relay.EventUserJoined)
	var joinedID string
	require.NoError(t, json.Unmarshal(env.Data, &joinedID))
	assert.Equal(t, bob.ID, joinedID)

	state := json.RawMessage(`{"dice":[3,5]}`)
	alice.Send(relay.EventDiceRoll, map[string]any{"roomId": "sala", "diceState": state})
	assert.JSONEq(t, string(state), string(bob.Expect(relay.EventDiceStateUpdate).Data))

	// A late joiner on either instance sees the latest state.
	carol := a.DialRelay(t)
	carol.Send(relay.EventJoinRoom, "sala")
	assert.JSONEq(t, string(state), string(carol.Expect(relay.EventDiceStateUpdate).Data))

	require.NoError(t, bob.Conn.Close())
	env = alice.Expect(relay.EventUserLeft)
	var leftID string
	require.NoError(t, json.Unmarshal(env.Data, &leftID))
	assert.Equal(t, bob.ID, leftID)
}

func TestE2E_AdminAndHealth(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.Do(t, http.MethodGet, "/health", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	created := MustMutation[table.CreateResult](t, ts, "tables.createTable", map[string]any{
		"slug": "admin", "sessionId": "m", "nickname": "M",
	})

	resp = ts.Do(t, http.MethodGet, "/api/admin/metrics", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.Do(t, http.MethodGet, "/api/admin/metrics", AdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics map[string]any
	ReadJSON(t, resp, &metrics)
	assert.EqualValues(t, 1, metrics["tables"])
	assert.Contains(t, metrics, "relay_rooms")

	resp = ts.Do(t, http.MethodDelete, fmt.Sprintf("/api/admin/tables/%d", created.TableID), AdminKey)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, res := ts.Mutation(t, "players.joinTable", map[string]any{"slug": "admin", "sessionId": "x", "nickname": "X"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, table.CodeNotFound, res.ErrorCode)
}
