package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kasuganosora/goblintable/config"
	dbmysql "github.com/kasuganosora/goblintable/db/mysql"
	dbsqlite "github.com/kasuganosora/goblintable/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMemory = "memory"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
// ModeMemory gets a private named in-memory SQLite database, so two calls
// never see each other's rows.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMemory:
		return dbsqlite.OpenMemory(uuid.NewString())
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
