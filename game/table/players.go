package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JoinResult identifies the seat a session holds at a table.
type JoinResult struct {
	TableID  int64 `json:"tableId"`
	PlayerID int64 `json:"playerId"`
	IsMaster bool  `json:"isMaster"`
}

// LeaveResult reports whether a seat was freed and whether that emptied and
// removed the table.
type LeaveResult struct {
	Left    bool `json:"left"`
	Cleaned bool `json:"cleaned"`
}

// KickResult mirrors LeaveResult for a master removing someone else.
type KickResult struct {
	Kicked  bool `json:"kicked"`
	Cleaned bool `json:"cleaned"`
}

// UpdateResult acknowledges a goblin seed change.
type UpdateResult struct {
	Updated bool `json:"updated"`
}

// JoinTable seats sessionID at the table named slug. Rejoining with the same
// session returns the existing seat, renaming it if the nickname changed,
// and never counts against the player cap.
func (svc *Service) JoinTable(ctx context.Context, slug, sessionID, nickname string) (*JoinResult, error) {
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

	var res JoinResult
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTableBySlug(tx, slug)
		if err != nil {
			return err
		}

		existing, err := findPlayer(tx, t.ID, sessionID)
		switch {
		case err == nil:
			if existing.Nickname != nickname {
				if err := tx.Model(existing).Update("nickname", nickname).Error; err != nil {
					return err
				}
			}
			res = JoinResult{TableID: t.ID, PlayerID: existing.ID, IsMaster: existing.IsMaster}
			return svc.touch(tx, t.ID)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		n, err := countPlayers(tx, t.ID)
		if err != nil {
			return err
		}
		if n >= int64(svc.cfg.MaxPlayers) {
			return fmt.Errorf("%w: table already has %d players", ErrCapacityExceeded, svc.cfg.MaxPlayers)
		}

		p := model.Player{TableID: t.ID, SessionID: sessionID, Nickname: nickname, JoinedAt: svc.now()}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		res = JoinResult{TableID: t.ID, PlayerID: p.ID}
		return svc.touch(tx, t.ID)
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Debug("player joined",
		zap.Int64("table_id", res.TableID),
		zap.Int64("player_id", res.PlayerID),
		zap.String("session", shortSession(sessionID)))
	svc.publish(ctx, res.TableID, EventPlayers)
	return &res, nil
}

// LeaveTable frees the seat held by sessionID. Leaving a table you are not
// seated at is not an error. The last player out removes the table.
func (svc *Service) LeaveTable(ctx context.Context, tableID int64, sessionID string) (*LeaveResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	var res LeaveResult
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPlayer(tx, tableID, sessionID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(p).Error; err != nil {
			return err
		}
		res.Left = true
		res.Cleaned, err = cleanupIfEmpty(tx, tableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Left {
		svc.logger.Debug("player left",
			zap.Int64("table_id", tableID),
			zap.String("session", shortSession(sessionID)),
			zap.Bool("cleaned", res.Cleaned))
		svc.publishSeatChange(ctx, tableID, res.Cleaned)
	}
	return &res, nil
}

// KickPlayer lets the master remove another seat. A target that is gone or
// seated elsewhere yields Kicked=false.
func (svc *Service) KickPlayer(ctx context.Context, tableID int64, sessionID string, targetPlayerID int64) (*KickResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	var res KickResult
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTable(tx, tableID)
		if err != nil {
			return err
		}
		if t.MasterSessionID != sessionID {
			return fmt.Errorf("%w: only the master can kick players", ErrForbidden)
		}

		var target model.Player
		err = tx.First(&target, targetPlayerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if target.TableID != tableID {
			return nil
		}
		if err := tx.Delete(&target).Error; err != nil {
			return err
		}
		res.Kicked = true
		res.Cleaned, err = cleanupIfEmpty(tx, tableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Kicked {
		svc.logger.Info("player kicked",
			zap.Int64("table_id", tableID),
			zap.Int64("player_id", targetPlayerID),
			zap.Bool("cleaned", res.Cleaned))
		svc.publishSeatChange(ctx, tableID, res.Cleaned)
	}
	return &res, nil
}

// UpdateGoblin stores the encoded goblin for the caller's seat. An empty
// seed clears it.
func (svc *Service) UpdateGoblin(ctx context.Context, tableID int64, sessionID, goblinSeed string) (*UpdateResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if len(goblinSeed) > svc.cfg.MaxSeedLen {
		return nil, fmt.Errorf("%w: goblin seed longer than %d bytes", ErrInvalidArgument, svc.cfg.MaxSeedLen)
	}

	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPlayer(tx, tableID, sessionID)
		if err != nil {
			return err
		}
		var seed *string
		if goblinSeed != "" {
			seed = &goblinSeed
		}
		return tx.Model(p).Update("goblin_seed", seed).Error
	})
	if err != nil {
		return nil, err
	}

	svc.publish(ctx, tableID, EventPlayers)
	return &UpdateResult{Updated: true}, nil
}

// GetTablePlayers lists a table's players in join order. A zero tableID
// yields an empty list.
func (svc *Service) GetTablePlayers(ctx context.Context, tableID int64) ([]model.Player, error) {
	players := []model.Player{}
	if tableID <= 0 {
		return players, nil
	}
	err := svc.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("joined_at ASC, id ASC").
		Find(&players).Error
	return players, err
}

func (svc *Service) publishSeatChange(ctx context.Context, tableID int64, cleaned bool) {
	if cleaned {
		svc.publish(ctx, tableID, EventDeleted)
		return
	}
	svc.publish(ctx, tableID, EventPlayers)
}
