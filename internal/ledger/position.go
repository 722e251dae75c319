package ledger

import (
	"github.com/shopspring/decimal"

	"paper-trading-go/internal/models"
)

// Position side values.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
	SideFlat = "FLAT"
)

// Position is a user's net holding in one symbol, derived from the open
// orders. It is recomputed on every read and never persisted.
type Position struct {
	NetQuantity int64           `json:"net_quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	Side        string          `json:"side"`
}

// Aggregate reduces the open orders for one (user, symbol) pair into a net
// position. The average cost is the quantity-weighted mean of the BUY legs
// only; SELL legs reduce the net quantity but do not re-cost remaining
// inventory (no FIFO/LIFO lot matching). When all BUY quantity has been
// offset the average is reported as zero and downstream P&L is zero.
func Aggregate(orders []models.Order) Position {
	var net, qtyBuy int64
	totalBuy := decimal.Zero

	for _, o := range orders {
		if o.Type == models.OrderTypeBuy {
			net += o.Quantity
			qtyBuy += o.Quantity
			totalBuy = totalBuy.Add(o.StockPrice.Mul(decimal.NewFromInt(o.Quantity)))
		} else {
			net -= o.Quantity
		}
	}

	pos := Position{NetQuantity: net, AvgBuyPrice: decimal.Zero}
	switch {
	case net == 0:
		pos.Side = SideFlat
	case net > 0:
		pos.Side = SideBuy
	default:
		pos.Side = SideSell
	}

	if qtyBuy > 0 && net != 0 {
		pos.AvgBuyPrice = totalBuy.Div(decimal.NewFromInt(qtyBuy))
	}

	return pos
}
