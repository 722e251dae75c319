package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trading-go/internal/models"
)

// Executor validates and applies BUY/SELL orders against the wallet.
// BUY (open or add to a long) and SELL (open a short) are symmetric
// debit-and-insert operations; the engine does not net against an existing
// opposite-side position at order time. Netting happens at aggregation and
// closing.
type Executor struct {
	store  Store
	locks  *UserLocks
	logger *zap.Logger
}

// NewExecutor creates an order executor. The lock table should be shared
// with the closer so all wallet mutations for a user serialize.
func NewExecutor(store Store, locks *UserLocks, logger *zap.Logger) *Executor {
	return &Executor{store: store, locks: locks, logger: logger}
}

// PlaceOrder debits the wallet by quantity*price and inserts an open order
// row, returning the remaining wallet balance. The debit is refused with
// ErrInsufficientBalance before any mutation when the wallet cannot cover
// the cost. If the order insert fails after the debit, the wallet is
// restored to its pre-debit value and ErrPersistence is returned. Single
// attempt, no retries.
func (e *Executor) PlaceOrder(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal, side string) (decimal.Decimal, error) {
	if userID == "" || symbol == "" {
		return decimal.Zero, fmt.Errorf("%w: missing user or symbol", ErrValidation)
	}
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if side != models.OrderTypeBuy && side != models.OrderTypeSell {
		return decimal.Zero, fmt.Errorf("%w: side must be BUY or SELL", ErrValidation)
	}

	mu := e.locks.Acquire(userID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := e.store.GetWalletBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not read wallet: %w", err)
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if balance.LessThan(cost) {
		return decimal.Zero, fmt.Errorf("%w: wallet %s, cost %s", ErrInsufficientBalance, balance, cost)
	}

	remaining := balance.Sub(cost)
	if err := e.store.SetWalletBalance(ctx, userID, remaining); err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to debit wallet: %v", ErrPersistence, err)
	}

	order := &models.Order{
		UserID:     userID,
		StockName:  symbol,
		Type:       side,
		Quantity:   quantity,
		StockPrice: price,
	}
	if err := e.store.InsertOrder(ctx, order); err != nil {
		// Compensate: restore the wallet to its pre-debit value.
		if rbErr := e.store.SetWalletBalance(ctx, userID, balance); rbErr != nil {
			e.logger.Error("Wallet rollback failed after order insert failure",
				zap.String("user_id", userID),
				zap.String("symbol", symbol),
				zap.Error(rbErr),
			)
		}
		return decimal.Zero, fmt.Errorf("%w: failed to place order: %v", ErrPersistence, err)
	}

	e.logger.Info("Order placed",
		zap.String("user_id", userID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Int64("quantity", quantity),
		zap.String("price", price.String()),
		zap.String("remaining_wallet", remaining.String()),
	)
	return remaining, nil
}
