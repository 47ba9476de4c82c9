package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/internal/config"
	"github.com/caldervale/ledgerline/internal/database"
	ledgerlineHttp "github.com/caldervale/ledgerline/internal/http"
	bulkpostHandler "github.com/caldervale/ledgerline/internal/http/bulkpost"
	ingestHandler "github.com/caldervale/ledgerline/internal/http/ingestfeed"
	invoiceHandler "github.com/caldervale/ledgerline/internal/http/invoice"
	issueHandler "github.com/caldervale/ledgerline/internal/http/issue"
	preflightHandler "github.com/caldervale/ledgerline/internal/http/preflight"
	vendorHandler "github.com/caldervale/ledgerline/internal/http/vendors"
	"github.com/caldervale/ledgerline/internal/ingest"
	"github.com/caldervale/ledgerline/internal/invoice"
	invoiceStore "github.com/caldervale/ledgerline/internal/invoice/store"
	"github.com/caldervale/ledgerline/internal/issue"
	issueStore "github.com/caldervale/ledgerline/internal/issue/store"
	"github.com/caldervale/ledgerline/internal/ledger"
	"github.com/caldervale/ledgerline/internal/poster"
	"github.com/caldervale/ledgerline/internal/preflight"
	"github.com/caldervale/ledgerline/internal/vendors"
	vendorStore "github.com/caldervale/ledgerline/internal/vendors/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		invoiceService = invoice.NewService(invoiceStore.New(db))
		issueService   = issue.NewService(issueStore.New(db))
		vendorService  = vendor.NewService(vendorStore.New(db))
		ingestService  = ingest.NewService()

		preflightEngine = preflight.NewEngine(invoiceService, issueService, preflight.Options{
			MinConfidence: decimal.RequireFromString(cfg.Preflight.MinConfidence),
			Tolerance:     decimal.RequireFromString(cfg.Preflight.Tolerance),
		})

		ledgerClient = ledger.New(cfg.Ledger.BaseURL, cfg.Ledger.Token)
		posterSvc    = poster.NewService(invoiceService, ledgerClient)
	)

	var (
		invoicesH  = invoiceHandler.NewHandler(invoiceService)
		ingestH    = ingestHandler.NewHandler(ingestService, invoiceService)
		preflightH = preflightHandler.NewHandler(preflightEngine)
		postingsH  = bulkpostHandler.NewHandler(posterSvc)
		issuesH    = issueHandler.NewHandler(issueService)
		vendorsH   = vendorHandler.NewHandler(vendorService)
	)

	router := ledgerlineHttp.New(cfg.Auth.Secret, invoicesH, ingestH, preflightH, postingsH, issuesH, vendorsH)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
