package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trading-go/internal/models"
)

// CloseResult is the outcome of a successful position close.
type CloseResult struct {
	RemainingWallet decimal.Decimal `json:"remainingWallet"`
	PL              decimal.Decimal `json:"PL"`
}

// Closer liquidates a symbol's full tracked position: it deletes the open
// order rows, credits the wallet with the proceeds and records the realized
// P&L in an immutable transaction row. There is no partial close.
type Closer struct {
	store  Store
	locks  *UserLocks
	logger *zap.Logger
}

// NewCloser creates a position closer sharing the executor's lock table.
func NewCloser(store Store, locks *UserLocks, logger *zap.Logger) *Closer {
	return &Closer{store: store, locks: locks, logger: logger}
}

// Close liquidates the position in symbol. For a long (side BUY) the
// realized P&L is (market-open)*qty and the proceeds are market*qty. For a
// short (side SELL) the P&L is (open-market)*qty and the proceeds are
// open*qty: the buy-to-cover settles at the original open price, matching
// the upstream ledger this engine reproduces, even though a market-price
// settlement would be the textbook behavior.
//
// The order delete is not rolled back if a later step fails; the
// compensation story here is intentionally weaker than the executor's.
func (c *Closer) Close(ctx context.Context, userID, symbol, stockName string, quantity int64, openPrice, marketPrice decimal.Decimal, side string) (CloseResult, error) {
	if userID == "" || symbol == "" {
		return CloseResult{}, fmt.Errorf("%w: missing user or symbol", ErrValidation)
	}
	if quantity <= 0 {
		return CloseResult{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !openPrice.IsPositive() || !marketPrice.IsPositive() {
		return CloseResult{}, fmt.Errorf("%w: prices must be positive", ErrValidation)
	}
	if side != models.OrderTypeBuy && side != models.OrderTypeSell {
		return CloseResult{}, fmt.Errorf("%w: side must be BUY or SELL", ErrValidation)
	}

	mu := c.locks.Acquire(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := c.store.DeleteOrders(ctx, userID, symbol); err != nil {
		return CloseResult{}, fmt.Errorf("%w: failed to delete open orders: %v", ErrPersistence, err)
	}

	balance, err := c.store.GetWalletBalance(ctx, userID)
	if err != nil {
		return CloseResult{}, fmt.Errorf("could not read wallet: %w", err)
	}

	qty := decimal.NewFromInt(quantity)
	var pl, proceeds decimal.Decimal
	if side == models.OrderTypeBuy {
		pl = marketPrice.Sub(openPrice).Mul(qty)
		proceeds = marketPrice.Mul(qty)
	} else {
		pl = openPrice.Sub(marketPrice).Mul(qty)
		proceeds = openPrice.Mul(qty)
	}

	remaining := balance.Add(proceeds)
	if err := c.store.SetWalletBalance(ctx, userID, remaining); err != nil {
		return CloseResult{}, fmt.Errorf("%w: failed to credit wallet: %v", ErrPersistence, err)
	}

	tx := &models.Transaction{
		UserID:     userID,
		Symbol:     symbol,
		StockName:  stockName,
		Type:       side,
		OpenPrice:  openPrice,
		ClosePrice: marketPrice,
		Quantity:   quantity,
		Total:      marketPrice.Mul(qty).Abs(),
		PL:         pl,
	}
	if err := c.store.InsertTransaction(ctx, tx); err != nil {
		return CloseResult{}, fmt.Errorf("%w: failed to insert transaction: %v", ErrPersistence, err)
	}

	c.logger.Info("Position closed",
		zap.String("user_id", userID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Int64("quantity", quantity),
		zap.String("pl", pl.String()),
		zap.String("remaining_wallet", remaining.String()),
	)
	return CloseResult{RemainingWallet: remaining, PL: pl}, nil
}
