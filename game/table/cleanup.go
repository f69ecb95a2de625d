package table

import (
	"github.com/kasuganosora/goblintable/model"
	"gorm.io/gorm"
)

// cleanupTable deletes everything keyed by tableID, then the table itself.
func cleanupTable(tx *gorm.DB, tableID int64) error {
	for _, m := range []any{&model.Message{}, &model.DiceRoll{}, &model.Player{}} {
		if err := tx.Where("table_id = ?", tableID).Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&model.Table{}, tableID).Error
}

// cleanupIfEmpty removes the table once its last player is gone.
func cleanupIfEmpty(tx *gorm.DB, tableID int64) (bool, error) {
	n, err := countPlayers(tx, tableID)
	if err != nil || n > 0 {
		return false, err
	}
	return true, cleanupTable(tx, tableID)
}
