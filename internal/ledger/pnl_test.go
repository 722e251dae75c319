package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUnrealizedPnL_Long(t *testing.T) {
	pos := Position{NetQuantity: 10, AvgBuyPrice: decimal.NewFromInt(100), Side: SideBuy}

	pnl := UnrealizedPnL(pos, decimal.NewFromInt(120))

	assert.True(t, pnl.Unrealized.Equal(decimal.NewFromInt(200)), pnl.Unrealized.String())
	assert.True(t, pnl.Percent.Equal(decimal.NewFromInt(20)), pnl.Percent.String())
}

func TestUnrealizedPnL_LongLoss(t *testing.T) {
	pos := Position{NetQuantity: 4, AvgBuyPrice: decimal.NewFromInt(50), Side: SideBuy}

	pnl := UnrealizedPnL(pos, decimal.NewFromInt(40))

	assert.True(t, pnl.Unrealized.Equal(decimal.NewFromInt(-40)), pnl.Unrealized.String())
	assert.True(t, pnl.Percent.Equal(decimal.NewFromInt(-20)), pnl.Percent.String())
}

func TestUnrealizedPnL_ShortProfitsFromDecline(t *testing.T) {
	pos := Position{NetQuantity: -5, AvgBuyPrice: decimal.NewFromInt(50), Side: SideSell}

	pnl := UnrealizedPnL(pos, decimal.NewFromInt(40))

	assert.True(t, pnl.Unrealized.Equal(decimal.NewFromInt(50)), pnl.Unrealized.String())
	assert.True(t, pnl.Percent.Equal(decimal.NewFromInt(20)), pnl.Percent.String())
}

func TestUnrealizedPnL_FlatIsZero(t *testing.T) {
	pos := Position{NetQuantity: 0, AvgBuyPrice: decimal.Zero, Side: SideFlat}

	pnl := UnrealizedPnL(pos, decimal.NewFromInt(500))

	assert.True(t, pnl.Unrealized.IsZero())
	assert.True(t, pnl.Percent.IsZero())
}

func TestUnrealizedPnL_ZeroCostBasisReportsZeroPercent(t *testing.T) {
	// A short with no BUY legs has no cost basis; percent must be 0, not
	// a division error.
	pos := Position{NetQuantity: -5, AvgBuyPrice: decimal.Zero, Side: SideSell}

	pnl := UnrealizedPnL(pos, decimal.NewFromInt(40))

	assert.True(t, pnl.Unrealized.IsZero())
	assert.True(t, pnl.Percent.IsZero())
}
