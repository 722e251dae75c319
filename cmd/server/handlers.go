package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trading-go/internal/account"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"
	"paper-trading-go/internal/view"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log       *zap.Logger
	store     *store.Store
	accounts  *account.Service
	executor  *ledger.Executor
	closer    *ledger.Closer
	builder   *view.Builder
	refresher *view.Refresher
	quotes    market.QuoteClientInterface
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	log *zap.Logger,
	st *store.Store,
	accounts *account.Service,
	executor *ledger.Executor,
	closer *ledger.Closer,
	builder *view.Builder,
	refresher *view.Refresher,
	quotes market.QuoteClientInterface,
) *APIHandler {
	return &APIHandler{
		log:       log,
		store:     st,
		accounts:  accounts,
		executor:  executor,
		closer:    closer,
		builder:   builder,
		refresher: refresher,
		quotes:    quotes,
	}
}

// Register attaches all API routes to the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/signup", h.SignupHandler)
	mux.HandleFunc("POST /api/logout", h.LogoutHandler)
	mux.HandleFunc("POST /api/wallet", h.WalletHandler)
	mux.HandleFunc("POST /api/buy", h.BuyHandler)
	mux.HandleFunc("POST /api/sell", h.SellHandler)
	mux.HandleFunc("POST /api/close", h.CloseHandler)
	mux.HandleFunc("POST /api/stocks", h.OrdersHandler)
	mux.HandleFunc("GET /api/transactions", h.TransactionsHandler)
	mux.HandleFunc("GET /api/portfolio", h.PortfolioHandler)
	mux.HandleFunc("GET /api/position", h.PositionHandler)
	mux.HandleFunc("GET /api/pnl", h.PnLHandler)
	mux.HandleFunc("GET /api/quotes/{symbol}", h.QuoteHandler)
	mux.HandleFunc("POST /api/quotes", h.QuotesHandler)
	mux.HandleFunc("GET /api/history/{symbol}", h.HistoryHandler)
	mux.HandleFunc("GET /api/search", h.SearchHandler)
	mux.HandleFunc("POST /api/watchlist", h.WatchlistHandler)
	mux.HandleFunc("GET /api/watchlist/get", h.WatchlistGetHandler)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInsufficientBalance):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, market.ErrSymbolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", zap.Error(err))
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// SignupHandler creates a user with the signup wallet grant and returns a
// session token.
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	user, sid, err := h.accounts.Signup(r.Context(), req.Email, req.FullName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sid":     sid,
		"user":    user,
	})
}

// LogoutHandler deletes a session token.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	if err := h.accounts.Logout(r.Context(), req.SID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// WalletHandler returns the user's wallet balance.
func (h *APIHandler) WalletHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	balance, err := h.store.GetWalletBalance(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"wallet": balance})
}

type orderRequest struct {
	UserID   string          `json:"userId"`
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (h *APIHandler) placeOrder(w http.ResponseWriter, r *http.Request, side, message string) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	remaining, err := h.executor.PlaceOrder(r.Context(), req.UserID, req.Symbol, req.Quantity, req.Price, side)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         message,
		"remainingWallet": remaining,
	})
}

// BuyHandler opens or adds to a long position.
func (h *APIHandler) BuyHandler(w http.ResponseWriter, r *http.Request) {
	h.placeOrder(w, r, models.OrderTypeBuy, "shares purchased")
}

// SellHandler opens a short position.
func (h *APIHandler) SellHandler(w http.ResponseWriter, r *http.Request) {
	h.placeOrder(w, r, models.OrderTypeSell, "shares shorted")
}

// CloseHandler liquidates a symbol's position.
func (h *APIHandler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string          `json:"userId"`
		Symbol     string          `json:"symbol"`
		StockName  string          `json:"stock_name"`
		Quantity   int64           `json:"quantity"`
		Price      decimal.Decimal `json:"price"`       // open price
		ClosePrice decimal.Decimal `json:"close_price"` // current market price
		Type       string          `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	result, err := h.closer.Close(r.Context(), req.UserID, req.Symbol, req.StockName, req.Quantity, req.Price, req.ClosePrice, req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Position closed successfully",
		"remainingWallet": result.RemainingWallet,
		"PL":              result.PL,
	})
}

// OrdersHandler returns the user's open orders, optionally for one symbol.
func (h *APIHandler) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	var orders []models.Order
	var err error
	if req.Symbol != "" {
		orders, err = h.store.OrdersForSymbol(r.Context(), req.UserID, req.Symbol)
	} else {
		orders, err = h.store.OrdersForUser(r.Context(), req.UserID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"order": orders})
}

// TransactionsHandler returns the user's closed positions.
func (h *APIHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("id")
	if userID == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id")))
		return
	}

	txs, err := h.store.TransactionsForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// PortfolioHandler returns the user's live portfolio snapshot. The user is
// tracked for periodic refresh; the cached snapshot is served when present.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("id")
	if userID == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id")))
		return
	}

	h.refresher.Track(userID)
	if snapshot, ok := h.refresher.Snapshot(userID); ok {
		h.writeJSON(w, http.StatusOK, snapshot)
		return
	}

	snapshot, err := h.builder.Build(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// PositionHandler returns the aggregated position for one symbol.
func (h *APIHandler) PositionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("id")
	symbol := r.URL.Query().Get("symbol")
	if userID == "" || symbol == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id or symbol")))
		return
	}

	orders, err := h.store.OrdersForSymbol(r.Context(), userID, symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ledger.Aggregate(orders))
}

// PnLHandler values one symbol's position against a caller-supplied live
// price (already in the reporting currency).
func (h *APIHandler) PnLHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("id")
	symbol := r.URL.Query().Get("symbol")
	liveStr := r.URL.Query().Get("live")
	if userID == "" || symbol == "" || liveStr == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id, symbol or live")))
		return
	}
	live, err := decimal.NewFromString(liveStr)
	if err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}

	orders, err := h.store.OrdersForSymbol(r.Context(), userID, symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ledger.UnrealizedPnL(ledger.Aggregate(orders), live))
}

// QuoteHandler returns the live quote for one symbol.
func (h *APIHandler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	quote, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, market.ErrSymbolNotFound) {
			h.writeError(w, err)
		} else {
			h.writeError(w, errors.Join(ledger.ErrUpstreamUnavailable, err))
		}
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// QuotesHandler returns live quotes for many symbols; failed symbols are
// omitted from the response.
func (h *APIHandler) QuotesHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Symbols) == 0 {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("symbols must be a non-empty array")))
		return
	}

	quotes, err := h.quotes.GetQuotes(r.Context(), req.Symbols)
	if err != nil {
		h.writeError(w, errors.Join(ledger.ErrUpstreamUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": quotes})
}

// HistoryHandler returns the OHLC series for chart rendering.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	interval := r.URL.Query().Get("interval")
	period := r.URL.Query().Get("range")
	if interval == "" {
		interval = "1d"
	}
	if period == "" {
		period = "1mo"
	}

	history, err := h.quotes.GetHistory(r.Context(), symbol, interval, period)
	if err != nil {
		if errors.Is(err, market.ErrSymbolNotFound) {
			h.writeError(w, err)
		} else {
			h.writeError(w, errors.Join(ledger.ErrUpstreamUnavailable, err))
		}
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

// SearchHandler returns symbol autocomplete matches.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing q")))
		return
	}

	results, err := h.quotes.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, errors.Join(ledger.ErrUpstreamUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// WatchlistHandler adds or removes a watchlist symbol.
func (h *APIHandler) WatchlistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"id"`
		Symbol string `json:"symbol"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(ledger.ErrValidation, err))
		return
	}
	if req.UserID == "" || req.Symbol == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id or symbol")))
		return
	}

	var err error
	switch req.Action {
	case "add":
		err = h.store.AddWatch(r.Context(), req.UserID, req.Symbol)
	case "remove":
		err = h.store.RemoveWatch(r.Context(), req.UserID, req.Symbol)
	default:
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("action must be add or remove")))
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// WatchlistGetHandler returns the user's watched symbols.
func (h *APIHandler) WatchlistGetHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("id")
	if userID == "" {
		h.writeError(w, errors.Join(ledger.ErrValidation, errors.New("missing id")))
		return
	}

	items, err := h.store.Watchlist(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}
