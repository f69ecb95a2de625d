package table

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Die size bounds accepted by ParseDice.
const (
	MinSides = 2
	MaxSides = 100
)

var diceRe = regexp.MustCompile(`^d(\d+)$`)

// RollResult is the authoritative outcome of a roll.
type RollResult struct {
	Result int `json:"result"`
}

// ParseDice reads a "d<sides>" spec, ignoring surrounding space and case.
// It returns the side count and the canonical label.
func ParseDice(spec string) (int, string, error) {
	m := diceRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(spec)))
	if m == nil {
		return 0, "", fmt.Errorf("%w: dice %q", ErrInvalidArgument, spec)
	}
	sides, err := strconv.Atoi(m[1])
	if err != nil || sides < MinSides || sides > MaxSides {
		return 0, "", fmt.Errorf("%w: dice %q must have %d..%d sides", ErrInvalidArgument, spec, MinSides, MaxSides)
	}
	return sides, "d" + strconv.Itoa(sides), nil
}

// RollDice rolls one die for the caller and records it in the table history.
func (svc *Service) RollDice(ctx context.Context, tableID int64, sessionID, dice string) (*RollResult, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}

	var res RollResult
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPlayer(tx, tableID, sessionID)
		if err != nil {
			return err
		}
		sides, label, err := ParseDice(dice)
		if err != nil {
			return err
		}

		res.Result = svc.intn(sides) + 1
		r := model.DiceRoll{
			TableID:   tableID,
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Dice:      label,
			Result:    res.Result,
			CreatedAt: svc.now(),
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		if _, err := evictOldest[model.DiceRoll](tx, tableID, svc.cfg.MaxDiceRolls); err != nil {
			return err
		}
		return svc.touch(tx, tableID)
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Debug("dice rolled",
		zap.Int64("table_id", tableID),
		zap.String("dice", strings.ToLower(strings.TrimSpace(dice))),
		zap.Int("result", res.Result))
	svc.publish(ctx, tableID, EventDice)
	return &res, nil
}

// GetDiceRolls lists a table's rolls oldest first.
func (svc *Service) GetDiceRolls(ctx context.Context, tableID int64) ([]model.DiceRoll, error) {
	return history[model.DiceRoll](svc.db.WithContext(ctx), tableID)
}
