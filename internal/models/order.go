package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order side values. A SELL order without a prior long holding opens a short.
const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"
)

// Order represents one executed BUY or SELL action that has not been closed
// yet. Rows are inserted by the order executor and deleted en masse per
// symbol when the position is closed. There is no update-in-place.
type Order struct {
	gorm.Model
	UserID     string          `gorm:"index:idx_user_stock;not null" json:"user_id"`
	StockName  string          `gorm:"index:idx_user_stock;not null" json:"stock_name"`
	Type       string          `gorm:"not null" json:"type"` // "BUY" or "SELL"
	Quantity   int64           `gorm:"not null" json:"quantity"`
	StockPrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"stock_price"`
}
