package rpc

import (
	"context"
	"errors"

	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/goblin"
	"github.com/kasuganosora/goblintable/model"
)

type createTableArgs struct {
	Slug      string `json:"slug" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Nickname  string `json:"nickname" binding:"required"`
}

type slugArgs struct {
	Slug string `json:"slug" binding:"required"`
}

type joinTableArgs struct {
	Slug      string `json:"slug" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Nickname  string `json:"nickname" binding:"required"`
}

type seatArgs struct {
	TableID   ID     `json:"tableId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

type kickArgs struct {
	TableID   ID     `json:"tableId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	PlayerID  ID     `json:"playerId" binding:"required"`
}

type updateGoblinArgs struct {
	TableID    ID     `json:"tableId" binding:"required"`
	SessionID  string `json:"sessionId" binding:"required"`
	GoblinSeed string `json:"goblinSeed"`
}

type sendMessageArgs struct {
	TableID   ID     `json:"tableId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Content   string `json:"content"`
}

type rollDiceArgs struct {
	TableID   ID     `json:"tableId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Dice      string `json:"dice" binding:"required"`
}

// tableArgs is optional: an absent tableId reads as an empty table.
type tableArgs struct {
	TableID ID `json:"tableId"`
}

type seedArgs struct {
	Seed string `json:"seed"`
}

type noArgs struct{}

// Register binds every table, player, message, dice and goblin function.
func Register(reg *Registry, svc *table.Service, gen *goblin.Generator) {
	reg.Mutation("tables.createTable", Bind(func(ctx context.Context, a createTableArgs) (*table.CreateResult, error) {
		return svc.CreateTable(ctx, a.Slug, a.SessionID, a.Nickname)
	}))
	reg.Mutation("tables.deleteTable", Bind(func(ctx context.Context, a seatArgs) (*table.DeleteResult, error) {
		return svc.DeleteTable(ctx, int64(a.TableID), a.SessionID)
	}))
	reg.Query("tables.getTableBySlug", Bind(func(ctx context.Context, a slugArgs) (*model.Table, error) {
		return svc.GetTableBySlug(ctx, a.Slug)
	}))

	reg.Mutation("players.joinTable", Bind(func(ctx context.Context, a joinTableArgs) (*table.JoinResult, error) {
		return svc.JoinTable(ctx, a.Slug, a.SessionID, a.Nickname)
	}))
	reg.Mutation("players.leaveTable", Bind(func(ctx context.Context, a seatArgs) (*table.LeaveResult, error) {
		return svc.LeaveTable(ctx, int64(a.TableID), a.SessionID)
	}))
	reg.Mutation("players.kickPlayer", Bind(func(ctx context.Context, a kickArgs) (*table.KickResult, error) {
		return svc.KickPlayer(ctx, int64(a.TableID), a.SessionID, int64(a.PlayerID))
	}))
	reg.Mutation("players.updateGoblin", Bind(func(ctx context.Context, a updateGoblinArgs) (*table.UpdateResult, error) {
		return svc.UpdateGoblin(ctx, int64(a.TableID), a.SessionID, a.GoblinSeed)
	}))
	reg.Query("players.getTablePlayers", Bind(func(ctx context.Context, a tableArgs) ([]model.Player, error) {
		return svc.GetTablePlayers(ctx, int64(a.TableID))
	}))

	reg.Mutation("messages.sendMessage", Bind(func(ctx context.Context, a sendMessageArgs) (*table.SendResult, error) {
		return svc.SendMessage(ctx, int64(a.TableID), a.SessionID, a.Content)
	}))
	reg.Query("messages.getMessages", Bind(func(ctx context.Context, a tableArgs) ([]model.Message, error) {
		return svc.GetMessages(ctx, int64(a.TableID))
	}))

	reg.Mutation("diceRolls.rollDice", Bind(func(ctx context.Context, a rollDiceArgs) (*table.RollResult, error) {
		return svc.RollDice(ctx, int64(a.TableID), a.SessionID, a.Dice)
	}))
	reg.Query("diceRolls.getDiceRolls", Bind(func(ctx context.Context, a tableArgs) ([]model.DiceRoll, error) {
		return svc.GetDiceRolls(ctx, int64(a.TableID))
	}))

	reg.Query("goblins.generate", Bind(func(_ context.Context, _ noArgs) (*goblin.Goblin, error) {
		return gen.Generate(), nil
	}))
	// An unreadable seed is "no character", not a failure.
	reg.Query("goblins.decode", Bind(func(_ context.Context, a seedArgs) (*goblin.Goblin, error) {
		g, err := gen.Decode(a.Seed)
		if errors.Is(err, goblin.ErrInvalidSeed) {
			return nil, nil
		}
		return g, err
	}))
}
