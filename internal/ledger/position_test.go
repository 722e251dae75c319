package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"paper-trading-go/internal/models"
)

func order(side string, qty int64, price int64) models.Order {
	return models.Order{
		Type:       side,
		Quantity:   qty,
		StockPrice: decimal.NewFromInt(price),
	}
}

func TestAggregate_BuyLegsOnly(t *testing.T) {
	orders := []models.Order{
		order(models.OrderTypeBuy, 10, 100),
		order(models.OrderTypeBuy, 30, 200),
	}

	pos := Aggregate(orders)

	assert.Equal(t, int64(40), pos.NetQuantity)
	assert.Equal(t, SideBuy, pos.Side)
	// Weighted mean: (10*100 + 30*200) / 40 = 175
	assert.True(t, pos.AvgBuyPrice.Equal(decimal.NewFromInt(175)), pos.AvgBuyPrice.String())
}

func TestAggregate_FullyOffset(t *testing.T) {
	orders := []models.Order{
		order(models.OrderTypeBuy, 10, 100),
		order(models.OrderTypeSell, 10, 120),
	}

	pos := Aggregate(orders)

	assert.Equal(t, int64(0), pos.NetQuantity)
	assert.Equal(t, SideFlat, pos.Side)
	assert.True(t, pos.AvgBuyPrice.IsZero())
}

func TestAggregate_PartialOffsetKeepsBuyLegCost(t *testing.T) {
	// SELL legs reduce the net quantity but the average cost stays the
	// weighted mean of the BUY legs. No lot matching.
	orders := []models.Order{
		order(models.OrderTypeBuy, 10, 100),
		order(models.OrderTypeBuy, 10, 200),
		order(models.OrderTypeSell, 5, 300),
	}

	pos := Aggregate(orders)

	assert.Equal(t, int64(15), pos.NetQuantity)
	assert.Equal(t, SideBuy, pos.Side)
	assert.True(t, pos.AvgBuyPrice.Equal(decimal.NewFromInt(150)), pos.AvgBuyPrice.String())
}

func TestAggregate_ShortOnly(t *testing.T) {
	orders := []models.Order{
		order(models.OrderTypeSell, 5, 50),
	}

	pos := Aggregate(orders)

	assert.Equal(t, int64(-5), pos.NetQuantity)
	assert.Equal(t, SideSell, pos.Side)
	// No BUY legs, so there is no cost basis to report.
	assert.True(t, pos.AvgBuyPrice.IsZero())
}

func TestAggregate_Empty(t *testing.T) {
	pos := Aggregate(nil)

	assert.Equal(t, int64(0), pos.NetQuantity)
	assert.Equal(t, SideFlat, pos.Side)
	assert.True(t, pos.AvgBuyPrice.IsZero())
}
