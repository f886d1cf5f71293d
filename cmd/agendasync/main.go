package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Containers built FROM scratch have no tzdata; the São Paulo zone must
	// always resolve.
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	httpadapter "agendasync/internal/adapter/http"
	"agendasync/internal/adapter/sheets"
	"agendasync/internal/config"
	"agendasync/internal/domain"
	"agendasync/internal/observability"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	schema, err := domain.NewSchema(cfg.SchemaVersion, domain.Options{LegacyTimeOffset: cfg.LegacyTimeOffset})
	if err != nil {
		logger.Error("invalid schema version", "error", err)
		os.Exit(1)
	}
	mapper := domain.NewMapper(schema, cfg.RequiredFields, cfg.ValidationStrict)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := sheets.NewClient(ctx, []byte(cfg.CredentialsJSON), cfg.SpreadsheetID, cfg.SheetName, metrics, logger)
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}

	var store httpadapter.RowStore = client
	if cfg.DedupEnabled {
		store = sheets.NewDedupStore(client, cfg.DedupCacheSize, cfg.DedupTTL, clockwork.NewRealClock(), metrics, logger)
		logger.Info("dedup window enabled", "cache_size", cfg.DedupCacheSize, "ttl", cfg.DedupTTL)
	}

	if cfg.AuthDisabled {
		logger.Warn("authorization bypass is ON; every delivery will be accepted and audit-logged")
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:          cfg.HTTPAddr,
		WebhookToken:  cfg.WebhookToken,
		AuthDisabled:  cfg.AuthDisabled,
		AppendTimeout: cfg.AppendTimeout,
		Version:       version,
	}, mapper, store, client, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("agendasync started",
		"schema", schema.Version,
		"columns", schema.ColumnNames(),
		"strict", cfg.ValidationStrict,
		"sheet", cfg.SheetName,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
