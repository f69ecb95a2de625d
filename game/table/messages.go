package table

import (
	"context"
	"strings"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SendResult acknowledges a stored chat line.
type SendResult struct {
	Sent bool `json:"sent"`
}

// SendMessage appends a chat line under the caller's current nickname.
// Content is trimmed and cut to the configured length; blank content stores
// nothing and returns nil.
func (svc *Service) SendMessage(ctx context.Context, tableID int64, sessionID, content string) (*SendResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	sent := false
	evicted := 0
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPlayer(tx, tableID, sessionID)
		if err != nil {
			return err
		}

		text := strings.TrimSpace(content)
		if text == "" {
			return nil
		}
		if r := []rune(text); len(r) > svc.cfg.MaxMessageLen {
			text = string(r[:svc.cfg.MaxMessageLen])
		}

		m := model.Message{
			TableID:   tableID,
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Content:   text,
			CreatedAt: svc.now(),
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if evicted, err = evictOldest[model.Message](tx, tableID, svc.cfg.MaxMessages); err != nil {
			return err
		}
		sent = true
		return svc.touch(tx, tableID)
	})
	if err != nil {
		return nil, err
	}
	if !sent {
		return nil, nil
	}

	if evicted > 0 {
		svc.logger.Debug("messages evicted", zap.Int64("table_id", tableID), zap.Int("count", evicted))
	}
	svc.publish(ctx, tableID, EventMessages)
	return &SendResult{Sent: true}, nil
}

// GetMessages lists a table's chat oldest first.
func (svc *Service) GetMessages(ctx context.Context, tableID int64) ([]model.Message, error) {
	return history[model.Message](svc.db.WithContext(ctx), tableID)
}
