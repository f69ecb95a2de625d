package table

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"
)

// EventKind says which part of a table changed.
type EventKind string

const (
	EventPlayers  EventKind = "players"
	EventMessages EventKind = "messages"
	EventDice     EventKind = "dice"
	EventDeleted  EventKind = "deleted"
)

// Event is published on Channel(TableID) after a mutation commits. It carries
// no data; subscribers re-query what they need.
type Event struct {
	TableID int64     `json:"table_id"`
	Kind    EventKind `json:"kind"`
}

// Channel is the pub/sub channel for one table.
func Channel(tableID int64) string {
	return "table:" + strconv.FormatInt(tableID, 10)
}

func (svc *Service) publish(ctx context.Context, tableID int64, kind EventKind) {
	if svc.pubsub == nil {
		return
	}
	payload, _ := json.Marshal(Event{TableID: tableID, Kind: kind})
	if err := svc.pubsub.Publish(context.WithoutCancel(ctx), Channel(tableID), string(payload)); err != nil {
		svc.logger.Warn("publish table event failed",
			zap.Int64("table_id", tableID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}
