package model

import "time"

// Message is a chat line. Nickname is a snapshot taken when it was sent.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID   int64     `gorm:"index:idx_message_table;not null" json:"tableId"`
	PlayerID  int64     `gorm:"not null" json:"playerId"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// DiceRoll is one authoritative roll result, e.g. Dice "d20", Result 17.
type DiceRoll struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID   int64     `gorm:"index:idx_roll_table;not null" json:"tableId"`
	PlayerID  int64     `gorm:"not null" json:"playerId"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	Dice      string    `gorm:"size:8;not null" json:"dice"`
	Result    int       `gorm:"not null" json:"result"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
