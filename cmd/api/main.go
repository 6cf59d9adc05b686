package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/expense-ledger/internal/api/handlers"
	"github.com/dvloznov/expense-ledger/internal/api/middleware"
	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/logger"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/dvloznov/expense-ledger/internal/snapshot"
	"github.com/dvloznov/expense-ledger/internal/store/inmemory"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to config file (or set LEDGER_CONFIG env)")
		addr       = flag.String("addr", "", "HTTP listen address, overrides server.addr")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Initialize logger
	log, err := logger.NewFromConfig(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	zone, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger timezone")
	}

	// Seed the ledger from the configured snapshot
	ctx := context.Background()
	repo := inmemory.NewStore(zone, time.Now)

	txs, err := snapshot.Load(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load snapshot")
	}
	if err := repo.Seed(ctx, txs); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed ledger")
	}

	tokens := inmemory.NewTokens(inmemory.DefaultTokenTTL, time.Now)

	handler := middleware.Chain(newMux(server{
		transactions: handlers.NewTransactionsHandler(repo, tokens, zone, cfg.Ledger.DeleteWindow, time.Now, log),
		csrf:         handlers.NewCSRFHandler(tokens, log),
		reports: handlers.NewReportsHandler(repo, report.Options{
			Zone:  zone,
			Brand: cfg.Report.Brand,
		}, time.Now, log),
		now: time.Now,
	}), log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("timezone", zone.String()).
			Dur("delete_window", cfg.Ledger.DeleteWindow).
			Int("transactions", len(txs)).
			Msg("Starting ledger server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// server groups the handlers mounted by newMux.
type server struct {
	transactions *handlers.TransactionsHandler
	csrf         *handlers.CSRFHandler
	reports      *handlers.ReportsHandler
	now          func() time.Time
}

func newMux(s server) *http.ServeMux {
	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.transactions.ListTransactions(w, r)
		case http.MethodPost:
			s.transactions.AddTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// The method check lives in the handler so non-DELETE requests get the
	// ledger's own failure body.
	mux.HandleFunc("/delete/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/delete/"), "/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		s.transactions.DeleteTransaction(w, r, id)
	})

	mux.HandleFunc("/api/filters", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.transactions.Filters(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/csrf", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.csrf.IssueToken(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Reports endpoint
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.reports.Report(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   s.now().Format(time.RFC3339),
		})
	})

	return mux
}
