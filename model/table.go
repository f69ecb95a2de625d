package model

import "time"

// Table is a shared play session addressed by a human-chosen slug.
type Table struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug            string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	MasterSessionID string    `gorm:"size:128;not null" json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// LastActiveAt is bumped by joins, messages and rolls; the idle sweep reads it.
	LastActiveAt time.Time `gorm:"index:idx_table_active" json:"lastActiveAt"`
}

// Player is one session seated at a table. SessionID is the client-held
// token and is never serialized back out.
type Player struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID    int64     `gorm:"uniqueIndex:idx_table_session,priority:1;not null" json:"tableId"`
	SessionID  string    `gorm:"uniqueIndex:idx_table_session,priority:2;size:128;not null" json:"-"`
	Nickname   string    `gorm:"size:64;not null" json:"nickname"`
	GoblinSeed *string   `gorm:"type:text" json:"goblinSeed"`
	IsMaster   bool      `gorm:"default:false" json:"isMaster"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}
