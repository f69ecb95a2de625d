package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateResult identifies a new table and its master.
type CreateResult struct {
	TableID  int64 `json:"tableId"`
	PlayerID int64 `json:"playerId"`
}

// DeleteResult is returned when a master deletes their table.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// CreateTable inserts a table under slug and seats sessionID as its master.
func (svc *Service) CreateTable(ctx context.Context, slug, sessionID, nickname string) (*CreateResult, error) {
	slug, err := svc.checkSlug(slug)
	if err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	nickname, err = svc.checkNickname(nickname)
	if err != nil {
		return nil, err
	}

	var res CreateResult
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Table{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: slug %q is taken", ErrAlreadyExists, slug)
		}

		now := svc.now()
		t := model.Table{Slug: slug, MasterSessionID: sessionID, CreatedAt: now, LastActiveAt: now}
		if err := tx.Create(&t).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: slug %q is taken", ErrAlreadyExists, slug)
			}
			return err
		}
		p := model.Player{TableID: t.ID, SessionID: sessionID, Nickname: nickname, IsMaster: true, JoinedAt: now}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		res = CreateResult{TableID: t.ID, PlayerID: p.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Info("table created",
		zap.Int64("table_id", res.TableID),
		zap.String("slug", slug),
		zap.String("session", shortSession(sessionID)))
	svc.publish(ctx, res.TableID, EventPlayers)
	return &res, nil
}

// DeleteTable removes the table and everything it owns. It returns nil
// without error when the table no longer exists.
func (svc *Service) DeleteTable(ctx context.Context, tableID int64, sessionID string) (*DeleteResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	gone := false
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTable(tx, tableID)
		if errors.Is(err, ErrNotFound) {
			gone = true
			return nil
		}
		if err != nil {
			return err
		}
		if t.MasterSessionID != sessionID {
			return fmt.Errorf("%w: only the master can delete the table", ErrForbidden)
		}
		return cleanupTable(tx, tableID)
	})
	if err != nil {
		return nil, err
	}
	if gone {
		return nil, nil
	}

	svc.logger.Info("table deleted", zap.Int64("table_id", tableID))
	svc.publish(ctx, tableID, EventDeleted)
	return &DeleteResult{Deleted: true}, nil
}

// GetTableBySlug returns the table or nil when no table uses slug.
func (svc *Service) GetTableBySlug(ctx context.Context, slug string) (*model.Table, error) {
	var t model.Table
	err := svc.db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
