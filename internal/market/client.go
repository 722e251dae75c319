package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"paper-trading-go/internal/config"
)

// ErrSymbolNotFound is returned when the feed has no data for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// QuoteClientInterface defines the interface for the market data feed.
type QuoteClientInterface interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	GetHistory(ctx context.Context, symbol, interval, period string) (*History, error)
}

// Quote is a point-in-time market quote. Prices are in the instrument's
// native currency; valuation into the reporting currency happens in the
// ledger.
type Quote struct {
	Symbol        string          `json:"symbol"`
	ShortName     string          `json:"short_name"`
	Currency      string          `json:"currency"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
}

// SearchResult is one autocomplete hit for a symbol search.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	Exchange  string `json:"exchDisp"`
	QuoteType string `json:"quoteType"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// History is the OHLC series for one symbol, for chart rendering.
type History struct {
	Symbol   string   `json:"symbol"`
	Currency string   `json:"currency"`
	Candles  []Candle `json:"candles"`
}

// chartResponse mirrors the Yahoo Finance chart API payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// searchResponse mirrors the Yahoo Finance search API payload.
type searchResponse struct {
	Quotes []SearchResult `json:"quotes"`
}

// QuoteClient is a rate-limited client for the market data feed.
// It implements QuoteClientInterface.
type QuoteClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure QuoteClient implements the interface
var _ QuoteClientInterface = (*QuoteClient)(nil)

// NewQuoteClient creates a new market data client.
func NewQuoteClient(cfg *config.Market, logger *zap.Logger) *QuoteClient {
	client := resty.New().
		SetBaseURL(cfg.QuoteBaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &QuoteClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *QuoteClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetQuote fetches the latest quote for one symbol.
func (c *QuoteClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var chart chartResponse

	req := c.client.R().
		SetResult(&chart).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "1d",
		})

	resp, err := c.doRequest(ctx, "GET", "/v8/finance/chart/"+symbol, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}

	result := resp.Result().(*chartResponse)
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrSymbolNotFound, symbol, result.Chart.Error.Code)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	meta := result.Chart.Result[0].Meta
	return &Quote{
		Symbol:        meta.Symbol,
		ShortName:     meta.ShortName,
		Currency:      meta.Currency,
		Price:         decimal.NewFromFloat(meta.RegularMarketPrice),
		PreviousClose: decimal.NewFromFloat(meta.PreviousClose),
	}, nil
}

// GetQuotes fetches quotes for many symbols concurrently. Symbols that fail
// are skipped; the display path tolerates holes and picks them up on the
// next refresh cycle.
func (c *QuoteClient) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	quotes := make(map[string]*Quote, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, s := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			quote, err := c.GetQuote(ctx, symbol)
			if err != nil {
				c.logger.Warn("Skipping quote", zap.String("symbol", symbol), zap.Error(err))
				return
			}
			mu.Lock()
			quotes[symbol] = quote
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	return quotes, nil
}

// Search returns autocomplete matches for a symbol or company name query.
func (c *QuoteClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var results searchResponse

	req := c.client.R().
		SetResult(&results).
		SetQueryParams(map[string]string{
			"q":           query,
			"quotesCount": "10",
			"newsCount":   "0",
		})

	_, err := c.doRequest(ctx, "GET", "/v1/finance/search", req)
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", query, err)
	}

	return results.Quotes, nil
}

// GetHistory fetches the OHLC series for a symbol, e.g. interval "1d" over
// period "1mo".
func (c *QuoteClient) GetHistory(ctx context.Context, symbol, interval, period string) (*History, error) {
	var chart chartResponse

	req := c.client.R().
		SetResult(&chart).
		SetQueryParams(map[string]string{
			"interval": interval,
			"range":    period,
		})

	resp, err := c.doRequest(ctx, "GET", "/v8/finance/chart/"+symbol, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}

	result := resp.Result().(*chartResponse)
	if result.Chart.Error != nil || len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	series := result.Chart.Result[0]
	history := &History{
		Symbol:   series.Meta.Symbol,
		Currency: series.Meta.Currency,
	}

	if len(series.Indicators.Quote) == 0 {
		return history, nil
	}

	bars := series.Indicators.Quote[0]
	for i, ts := range series.Timestamp {
		if i >= len(bars.Close) {
			break
		}
		candle := Candle{Timestamp: ts, Close: bars.Close[i]}
		if i < len(bars.Open) {
			candle.Open = bars.Open[i]
		}
		if i < len(bars.High) {
			candle.High = bars.High[i]
		}
		if i < len(bars.Low) {
			candle.Low = bars.Low[i]
		}
		if i < len(bars.Volume) {
			candle.Volume = bars.Volume[i]
		}
		history.Candles = append(history.Candles, candle)
	}

	return history, nil
}
