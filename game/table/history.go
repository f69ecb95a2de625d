package table

import (
	"gorm.io/gorm"
)

// evictOldest trims a table's history of T down to limit rows, deleting the
// oldest first. Rows are ordered by id, their insertion sequence.
func evictOldest[T any](tx *gorm.DB, tableID int64, limit int) (int, error) {
	var n int64
	if err := tx.Model(new(T)).Where("table_id = ?", tableID).Count(&n).Error; err != nil {
		return 0, err
	}
	excess := int(n) - limit
	if excess <= 0 {
		return 0, nil
	}

	var ids []int64
	err := tx.Model(new(T)).
		Where("table_id = ?", tableID).
		Order("id ASC").
		Limit(excess).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(new(T)).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// history lists a table's rows of T oldest first.
func history[T any](tx *gorm.DB, tableID int64) ([]T, error) {
	rows := []T{}
	if tableID <= 0 {
		return rows, nil
	}
	err := tx.Where("table_id = ?", tableID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
