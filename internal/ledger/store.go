package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"paper-trading-go/internal/models"
)

// Store is the persistence contract the engine requires. The engine never
// assumes a storage backend; it only needs these operations.
type Store interface {
	GetWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	SetWalletBalance(ctx context.Context, userID string, balance decimal.Decimal) error
	InsertOrder(ctx context.Context, order *models.Order) error
	DeleteOrders(ctx context.Context, userID, symbol string) error
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
}

// RateSource supplies exchange rates for the valuation converter.
type RateSource interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}
