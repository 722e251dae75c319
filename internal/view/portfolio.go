package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"
)

// Row is one symbol's aggregated holding valued at the live price.
type Row struct {
	Symbol      string          `json:"symbol"`
	StockName   string          `json:"stock_name"`
	Side        string          `json:"side"`
	NetQuantity int64           `json:"net_quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	LivePrice   decimal.Decimal `json:"live_price"`
	PnL         decimal.Decimal `json:"pnl"`
	PnLPercent  decimal.Decimal `json:"pnl_percent"`
	OpenedAt    time.Time       `json:"opened_at"`
}

// Snapshot is the portfolio view for one user at one instant. It is
// recomputed from the store and the live feed on every build; nothing in
// it is persisted.
type Snapshot struct {
	Rows          []Row           `json:"rows"`
	InvestedValue decimal.Decimal `json:"invested_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercent    decimal.Decimal `json:"pnl_percent"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Builder assembles portfolio snapshots from open orders, live quotes and
// the valuation converter.
type Builder struct {
	store     *store.Store
	quotes    market.QuoteClientInterface
	converter *ledger.Converter
	logger    *zap.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(st *store.Store, quotes market.QuoteClientInterface, converter *ledger.Converter, logger *zap.Logger) *Builder {
	return &Builder{store: st, quotes: quotes, converter: converter, logger: logger}
}

// Build computes the user's portfolio snapshot. Symbols whose quote is
// missing this cycle are valued at their average cost, so a feed outage
// shows a flat P&L instead of an empty page.
func (b *Builder) Build(ctx context.Context, userID string) (*Snapshot, error) {
	orders, err := b.store.OrdersForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Order)
	var symbols []string
	for _, o := range orders {
		if _, seen := grouped[o.StockName]; !seen {
			symbols = append(symbols, o.StockName)
		}
		grouped[o.StockName] = append(grouped[o.StockName], o)
	}

	snapshot := &Snapshot{
		InvestedValue: decimal.Zero,
		CurrentValue:  decimal.Zero,
		PnL:           decimal.Zero,
		PnLPercent:    decimal.Zero,
		UpdatedAt:     time.Now(),
	}
	if len(symbols) == 0 {
		return snapshot, nil
	}

	quotes, err := b.quotes.GetQuotes(ctx, symbols)
	if err != nil {
		// Quotes are advisory; value everything at cost this cycle.
		b.logger.Warn("Quote refresh failed, valuing at cost", zap.Error(err))
		quotes = map[string]*market.Quote{}
	}

	for _, symbol := range symbols {
		group := grouped[symbol]
		pos := ledger.Aggregate(group)
		if pos.Side == ledger.SideFlat {
			continue
		}

		live := pos.AvgBuyPrice
		stockName := symbol
		if quote, ok := quotes[symbol]; ok {
			live = b.converter.Convert(ctx, quote.Price, quote.Currency)
			if quote.ShortName != "" {
				stockName = quote.ShortName
			}
		}

		pnl := ledger.UnrealizedPnL(pos, live)

		qty := pos.NetQuantity
		if qty < 0 {
			qty = -qty
		}
		quantity := decimal.NewFromInt(qty)

		snapshot.Rows = append(snapshot.Rows, Row{
			Symbol:      symbol,
			StockName:   stockName,
			Side:        pos.Side,
			NetQuantity: pos.NetQuantity,
			AvgBuyPrice: pos.AvgBuyPrice,
			LivePrice:   live,
			PnL:         pnl.Unrealized,
			PnLPercent:  pnl.Percent,
			OpenedAt:    group[0].CreatedAt,
		})

		snapshot.InvestedValue = snapshot.InvestedValue.Add(pos.AvgBuyPrice.Mul(quantity))
		snapshot.CurrentValue = snapshot.CurrentValue.Add(live.Mul(quantity))
		snapshot.PnL = snapshot.PnL.Add(pnl.Unrealized)
	}

	if snapshot.InvestedValue.IsPositive() {
		snapshot.PnLPercent = snapshot.PnL.Div(snapshot.InvestedValue).Mul(decimal.NewFromInt(100))
	}

	return snapshot, nil
}
