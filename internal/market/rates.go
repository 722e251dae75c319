package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"paper-trading-go/internal/config"
)

// rateResponse mirrors the exchangerate-api.com /v4/latest payload.
type rateResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// RateClient fetches currency exchange rates from the external rate
// provider. It satisfies the ledger's RateSource contract.
type RateClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewRateClient creates a new exchange rate client.
func NewRateClient(cfg *config.Market, logger *zap.Logger) *RateClient {
	client := resty.New().
		SetBaseURL(cfg.RateBaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RateClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// GetRate fetches the conversion rate from one currency to another. The
// provider publishes the
// full rate table for a base currency, so one request covers any target.
func (c *RateClient) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var rates rateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&rates).
		Get("/" + from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rates for %s: %w", from, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("rate provider returned status %s for %s", resp.Status(), from)
	}

	result := resp.Result().(*rateResponse)
	value, ok := result.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate published for %s/%s", from, to)
	}

	c.logger.Debug("Fetched exchange rate",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("rate", value),
	)
	return decimal.NewFromFloat(value), nil
}
