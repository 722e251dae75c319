package models

import "gorm.io/gorm"

// WatchlistItem represents a symbol a user is tracking.
type WatchlistItem struct {
	gorm.Model
	UserID string `gorm:"uniqueIndex:idx_user_symbol;not null" json:"user_id"`
	Symbol string `gorm:"uniqueIndex:idx_user_symbol;not null" json:"symbol"`
}
