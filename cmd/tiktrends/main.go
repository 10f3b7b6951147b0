package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bigqueryadapter "github.com/efisher/tiktrends/internal/adapter/driven/bigquery"
	"github.com/efisher/tiktrends/internal/adapter/driven/lookercsv"
	sqliteadapter "github.com/efisher/tiktrends/internal/adapter/driven/sqlite"
	"github.com/efisher/tiktrends/internal/adapter/driven/tikapi"
	httphandler "github.com/efisher/tiktrends/internal/adapter/driving/http"
	"github.com/efisher/tiktrends/internal/application"
	"github.com/efisher/tiktrends/internal/config"
	"github.com/efisher/tiktrends/internal/credfile"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"schedule", cfg.Schedule,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire stores.
	creatorStore := sqliteadapter.NewCreatorRepo(db)
	statStore := sqliteadapter.NewStatRepo(db)
	runStore := sqliteadapter.NewRunRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.EncryptionKey)

	// 6. Resolve credentials: stored credentials take priority over env vars.
	if !cfg.HasTikAPIKey() {
		slog.Info("TIKAPI_KEY not set in environment, checking credential store")
	}
	tikAPIKey := cfg.TikAPIKey
	if stored, err := credentialStore.Get(ctx, "tikapi", "key"); err == nil && stored != "" {
		tikAPIKey = stored
	}
	if tikAPIKey == "" {
		return fmt.Errorf("no TikAPI key: set TIKAPI_KEY or store one via PUT /api/v1/credentials/tikapi/key")
	}

	bigQueryKey := cfg.BigQueryKey
	if stored, err := credentialStore.Get(ctx, "bigquery", "service_account"); err == nil && stored != "" {
		bigQueryKey = stored
	}

	tikClient := tikapi.NewClient(tikAPIKey, cfg.APIRate)
	slog.Info("tikapi client created", "requests_per_second", cfg.APIRate)

	// 7. Build export sinks. BigQuery needs its service account key
	// materialized to a file; the handle is scoped to this process and
	// removed on shutdown.
	var sinks []driven.TrendSink

	if cfg.HasBigQuery() {
		if bigQueryKey == "" {
			return fmt.Errorf("TIKTRENDS_BQ_PROJECT is set but no BigQuery key: set BIGQUERY_KEY or store a bigquery/service_account credential")
		}

		cred, err := credfile.Materialize(bigQueryKey, "tiktokanalyticskey.json")
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := cred.Close(); closeErr != nil {
				slog.Error("error removing credential file", "error", closeErr)
			}
		}()

		bqSink, err := bigqueryadapter.NewSink(ctx, cfg.BQProject, cfg.BQDataset, cfg.BQTable, cred.Path())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := bqSink.Close(); closeErr != nil {
				slog.Error("error closing bigquery client", "error", closeErr)
			}
		}()
		sinks = append(sinks, bqSink)
		slog.Info("bigquery sink configured", "project", cfg.BQProject, "dataset", cfg.BQDataset, "table", cfg.BQTable)
	} else {
		slog.Info("no bigquery project configured, warehouse export disabled")
	}

	if cfg.CSVPath != "" {
		sinks = append(sinks, lookercsv.NewSink(cfg.CSVPath))
		slog.Info("csv sink configured", "path", cfg.CSVPath)
	}

	// 8. Create and start collect service.
	collectSvc := application.NewCollectService(
		tikClient,
		creatorStore,
		statStore,
		runStore,
		sinks,
		application.CollectOptions{
			RootSecUID:    cfg.RootSecUID,
			PostWindow:    cfg.PostWindow,
			RollingWindow: cfg.RollingWindow,
		},
	)
	go collectSvc.Start(ctx)

	// 9. Create and start scheduler.
	scheduler, err := application.NewScheduler(cfg.Schedule, collectSvc)
	if err != nil {
		return err
	}
	go scheduler.Start(ctx)

	// 10. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(runStore, creatorStore, statStore, credentialStore, collectSvc, scheduler, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("tiktrends started",
		"listen_addr", cfg.ListenAddr,
		"schedule", cfg.Schedule,
		"next_run", scheduler.NextActivation(time.Now()),
		"sinks", len(sinks),
	)

	// 11. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 12. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
