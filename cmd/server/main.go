package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paper-trading-go/internal/account"
	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/logger"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/store"
	"paper-trading-go/internal/view"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	st := store.New(db)

	// External market data providers
	quoteClient := market.NewQuoteClient(&cfg.Market, log.Named("quotes"))
	rateClient := market.NewRateClient(&cfg.Market, log.Named("rates"))

	// Ledger engine
	locks := ledger.NewUserLocks()
	converter := ledger.NewConverter(rateClient, cfg.Ledger.ReportingCurrency, log.Named("valuation"))
	executor := ledger.NewExecutor(st, locks, log.Named("executor"))
	closer := ledger.NewCloser(st, locks, log.Named("closer"))

	// Accounts and the portfolio view
	accounts := account.NewService(st, &cfg.Account, log.Named("accounts"))
	builder := view.NewBuilder(st, quoteClient, converter, log.Named("view"))
	interval := time.Duration(cfg.Ledger.RefreshIntervalSeconds) * time.Second
	refresher := view.NewRefresher(builder, interval, log.Named("refresher"))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go refresher.Run(ctx)

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log.Named("api"), st, accounts, executor, closer, builder, refresher, quoteClient)
	apiHandler.Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
