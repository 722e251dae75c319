package ledger

import "github.com/shopspring/decimal"

// PnL is the live profit/loss of an open position against the current
// market price. Never persisted.
type PnL struct {
	Unrealized decimal.Decimal `json:"unrealized_pl"`
	Percent    decimal.Decimal `json:"pl_percent"`
}

var hundred = decimal.NewFromInt(100)

// UnrealizedPnL values an open position against the live price (already in
// the reporting currency). Longs profit when the price rises, shorts when
// it falls. The percent is relative to the cost basis; when the cost basis
// is zero (flat position, or all BUY legs offset) both values are zero
// rather than a division error.
func UnrealizedPnL(pos Position, livePrice decimal.Decimal) PnL {
	if pos.Side == SideFlat {
		return PnL{Unrealized: decimal.Zero, Percent: decimal.Zero}
	}

	qty := pos.NetQuantity
	if qty < 0 {
		qty = -qty
	}
	quantity := decimal.NewFromInt(qty)

	var pl decimal.Decimal
	if pos.Side == SideSell {
		pl = pos.AvgBuyPrice.Sub(livePrice).Mul(quantity)
	} else {
		pl = livePrice.Sub(pos.AvgBuyPrice).Mul(quantity)
	}

	cost := pos.AvgBuyPrice.Mul(quantity)
	if cost.IsZero() {
		return PnL{Unrealized: decimal.Zero, Percent: decimal.Zero}
	}

	return PnL{
		Unrealized: pl,
		Percent:    pl.Div(cost).Mul(hundred),
	}
}
