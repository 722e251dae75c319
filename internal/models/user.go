package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents an account holder with a virtual cash wallet.
// The ID is issued by the auth provider and is treated as opaque.
type User struct {
	ID        string          `gorm:"primaryKey" json:"id"`
	Email     string          `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string          `json:"full_name,omitempty"`
	Wallet    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"wallet"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
