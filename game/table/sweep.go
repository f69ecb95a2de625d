package table

import (
	"context"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SweepIdle removes tables whose last activity is older than the configured
// idle TTL. It is a no-op when the TTL is zero. It returns how many tables
// were removed.
func (svc *Service) SweepIdle(ctx context.Context) (int, error) {
	ttl := svc.cfg.IdleTTL
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := svc.now().Add(-ttl)

	var ids []int64
	err := svc.db.WithContext(ctx).Model(&model.Table{}).
		Where("last_active_at < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		deleted := false
		err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Re-check inside the transaction; a join may have touched it.
			res := tx.Where("id = ? AND last_active_at < ?", id, cutoff).Delete(&model.Table{})
			if res.Error != nil || res.RowsAffected == 0 {
				return res.Error
			}
			for _, m := range []any{&model.Message{}, &model.DiceRoll{}, &model.Player{}} {
				if err := tx.Where("table_id = ?", id).Delete(m).Error; err != nil {
					return err
				}
			}
			deleted = true
			return nil
		})
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
			svc.publish(ctx, id, EventDeleted)
		}
	}

	if removed > 0 {
		svc.logger.Info("idle tables swept", zap.Int("count", removed), zap.Duration("ttl", ttl))
	}
	return removed, nil
}
