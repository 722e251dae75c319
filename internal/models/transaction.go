package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction represents a closed position, the permanent historical record.
// Rows are immutable once inserted; nothing in the engine updates or deletes
// them.
type Transaction struct {
	gorm.Model
	UserID     string          `gorm:"index;not null" json:"user_id"`
	Symbol     string          `gorm:"not null" json:"symbol"`
	StockName  string          `json:"stock_name"`
	Type       string          `gorm:"not null" json:"type"` // side of the original position
	OpenPrice  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"open_price"`
	ClosePrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"close_price"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	Total      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total"`
	PL         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"PL"`
}
