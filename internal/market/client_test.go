package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a QuoteClient configured to use it.
func setupTestServer(handler http.Handler) (*QuoteClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	qc := &QuoteClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return qc, server
}

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "USD",
        "symbol": "AAPL",
        "shortName": "Apple Inc.",
        "regularMarketPrice": 230.5,
        "previousClose": 228.0
      },
      "timestamp": [1700000000, 1700086400],
      "indicators": {
        "quote": [{
          "open":  [228.1, 229.0],
          "high":  [231.0, 232.5],
          "low":   [227.5, 228.8],
          "close": [229.9, 230.5],
          "volume": [1000, 2000]
        }]
      }
    }],
    "error": null
  }
}`

func TestGetQuote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chartBody))
		})

		qc, server := setupTestServer(handler)
		defer server.Close()

		quote, err := qc.GetQuote(context.Background(), "AAPL")

		assert.NoError(t, err)
		assert.Equal(t, "AAPL", quote.Symbol)
		assert.Equal(t, "Apple Inc.", quote.ShortName)
		assert.Equal(t, "USD", quote.Currency)
		assert.True(t, quote.Price.Equal(decimal.NewFromFloat(230.5)), quote.Price.String())
	})

	t.Run("SymbolNotFound", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`))
		})

		qc, server := setupTestServer(handler)
		defer server.Close()

		_, err := qc.GetQuote(context.Background(), "NOPE")

		assert.ErrorIs(t, err, ErrSymbolNotFound)
	})

	t.Run("ServerError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "bad symbol"}`))
		})

		qc, server := setupTestServer(handler)
		defer server.Close()

		_, err := qc.GetQuote(context.Background(), "AAPL")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get quote")
	})
}

func TestGetQuotes_SkipsFailedSymbols(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v8/finance/chart/AAPL" {
			_, _ = w.Write([]byte(chartBody))
			return
		}
		_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`))
	})

	qc, server := setupTestServer(handler)
	defer server.Close()

	quotes, err := qc.GetQuotes(context.Background(), []string{"AAPL", "NOPE"})

	assert.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.Contains(t, quotes, "AAPL")
}

func TestSearch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quotes": [{"symbol": "AAPL", "shortname": "Apple Inc.", "exchDisp": "NASDAQ", "quoteType": "EQUITY"}]}`))
	})

	qc, server := setupTestServer(handler)
	defer server.Close()

	results, err := qc.Search(context.Background(), "apple")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "Apple Inc.", results[0].ShortName)
}

func TestGetHistory(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	})

	qc, server := setupTestServer(handler)
	defer server.Close()

	history, err := qc.GetHistory(context.Background(), "AAPL", "1d", "1mo")

	assert.NoError(t, err)
	assert.Equal(t, "AAPL", history.Symbol)
	assert.Len(t, history.Candles, 2)
	assert.Equal(t, int64(1700000000), history.Candles[0].Timestamp)
	assert.Equal(t, 229.9, history.Candles[0].Close)
	assert.Equal(t, int64(2000), history.Candles[1].Volume)
}
