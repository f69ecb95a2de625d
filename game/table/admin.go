package table

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary is the operator view of one table.
type Summary struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Players      int64     `json:"players"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Stats are global counters for the admin metrics endpoint.
type Stats struct {
	Tables   int64 `json:"tables"`
	Players  int64 `json:"players"`
	Messages int64 `json:"messages"`
	Rolls    int64 `json:"diceRolls"`
}

// ListTables returns every table with its seat count, most recently active
// first.
func (svc *Service) ListTables(ctx context.Context) ([]Summary, error) {
	out := []Summary{}
	err := svc.db.WithContext(ctx).
		Model(&model.Table{}).
		Select("tables.id, tables.slug, tables.created_at, tables.last_active_at, COUNT(players.id) AS players").
		Joins("LEFT JOIN players ON players.table_id = tables.id").
		Group("tables.id, tables.slug, tables.created_at, tables.last_active_at").
		Order("tables.last_active_at DESC, tables.id DESC").
		Scan(&out).Error
	return out, err
}

// Stats counts rows across all tables.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := svc.db.WithContext(ctx)
	for _, c := range []struct {
		model any
		dst   *int64
	}{
		{&model.Table{}, &s.Tables},
		{&model.Player{}, &s.Players},
		{&model.Message{}, &s.Messages},
		{&model.DiceRoll{}, &s.Rolls},
	} {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return Stats{}, err
		}
	}
	return s, nil
}

// ForceDelete removes a table regardless of who is seated. It reports false
// when the table does not exist.
func (svc *Service) ForceDelete(ctx context.Context, tableID int64) (bool, error) {
	if err := checkTableID(tableID); err != nil {
		return false, err
	}
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findTable(tx, tableID); err != nil {
			return err
		}
		return cleanupTable(tx, tableID)
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	svc.logger.Info("table force-deleted", zap.Int64("table_id", tableID))
	svc.publish(ctx, tableID, EventDeleted)
	return true, nil
}
