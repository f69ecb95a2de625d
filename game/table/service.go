// Package table holds the authoritative rules for tables, seated players and
// their bounded chat and dice history. Every mutation runs in a single
// database transaction and publishes a TableEvent once it commits.
package table

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kasuganosora/goblintable/cache"
	"github.com/kasuganosora/goblintable/config"
	"github.com/kasuganosora/goblintable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service implements all table mutations and queries.
type Service struct {
	db     *gorm.DB
	pubsub cache.PubSub
	cfg    config.TableConfig
	logger *zap.Logger
	intn   func(n int) int
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithIntN replaces the dice source. intn(n) must return a value in [0, n).
func WithIntN(intn func(n int) int) Option {
	return func(svc *Service) { svc.intn = intn }
}

// WithClock replaces time.Now for created and last-active timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates a Service. ps may be nil, in which case no events are
// published. Zero limits in cfg fall back to the defaults.
func NewService(db *gorm.DB, ps cache.PubSub, cfg config.TableConfig, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		db:     db,
		pubsub: ps,
		cfg:    withDefaults(cfg),
		logger: logger,
		intn:   rand.IntN,
		now:    time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Config returns the effective limits.
func (svc *Service) Config() config.TableConfig { return svc.cfg }

func withDefaults(cfg config.TableConfig) config.TableConfig {
	d := config.DefaultTableConfig()
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = d.MaxPlayers
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = d.MaxMessages
	}
	if cfg.MaxDiceRolls <= 0 {
		cfg.MaxDiceRolls = d.MaxDiceRolls
	}
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = d.MaxMessageLen
	}
	if cfg.MaxNicknameLen <= 0 {
		cfg.MaxNicknameLen = d.MaxNicknameLen
	}
	if cfg.MaxSlugLen <= 0 {
		cfg.MaxSlugLen = d.MaxSlugLen
	}
	if cfg.MaxSeedLen <= 0 {
		cfg.MaxSeedLen = d.MaxSeedLen
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = d.SweepInterval
	}
	return cfg
}

const maxSessionIDLen = 128

func (svc *Service) checkSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || utf8.RuneCountInString(slug) > svc.cfg.MaxSlugLen {
		return "", fmt.Errorf("%w: slug must be 1..%d characters", ErrInvalidArgument, svc.cfg.MaxSlugLen)
	}
	return slug, nil
}

func (svc *Service) checkNickname(nick string) (string, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" || utf8.RuneCountInString(nick) > svc.cfg.MaxNicknameLen {
		return "", fmt.Errorf("%w: nickname must be 1..%d characters", ErrInvalidArgument, svc.cfg.MaxNicknameLen)
	}
	return nick, nil
}

func checkSessionID(sessionID string) error {
	if sessionID == "" || len(sessionID) > maxSessionIDLen {
		return fmt.Errorf("%w: sessionId must be 1..%d bytes", ErrInvalidArgument, maxSessionIDLen)
	}
	return nil
}

func checkTableID(tableID int64) error {
	if tableID <= 0 {
		return fmt.Errorf("%w: tableId is required", ErrInvalidArgument)
	}
	return nil
}

// findTable loads a table, locking its row where the dialect supports it so
// capacity and master checks are serialized per table.
func findTable(tx *gorm.DB, tableID int64) (*model.Table, error) {
	var t model.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: table %d", ErrNotFound, tableID)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func findTableBySlug(tx *gorm.DB, slug string) (*model.Table, error) {
	var t model.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("slug = ?", slug).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: table %q", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func findPlayer(tx *gorm.DB, tableID int64, sessionID string) (*model.Player, error) {
	var p model.Player
	err := tx.Where("table_id = ? AND session_id = ?", tableID, sessionID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: player", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func countPlayers(tx *gorm.DB, tableID int64) (int64, error) {
	var n int64
	err := tx.Model(&model.Player{}).Where("table_id = ?", tableID).Count(&n).Error
	return n, err
}

func (svc *Service) touch(tx *gorm.DB, tableID int64) error {
	return tx.Model(&model.Table{}).Where("id = ?", tableID).
		Update("last_active_at", svc.now()).Error
}

// shortSession trims a session id for logging.
func shortSession(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
