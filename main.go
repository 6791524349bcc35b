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

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"rancher-dashboard/config"
	"rancher-dashboard/handlers"
	"rancher-dashboard/middleware"
	"rancher-dashboard/models"
	"rancher-dashboard/services"
	"rancher-dashboard/snapshot"
	"rancher-dashboard/storage"
	"rancher-dashboard/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "snapshot" {
		err = runSnapshot(ctx, cfg, logger)
	} else {
		err = serve(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Rancher Numbers Dashboard starting ===")
	logger.Info("Config: source %s | state codes %s | port %s", cfg.DataSource, cfg.StateCodesURL, cfg.Port)

	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("Dataset ready: %d records across years %v", ds.Len(), ds.Years())

	dashboard, err := handlers.NewDashboard(ds, cfg.MapCacheTTL, logger)
	if err != nil {
		return err
	}

	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	dashboard.Register(r)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:         86400,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	serveErr := make(chan error, 1)
	logger.Info("Listening on %s", srv.Addr)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

// loadDataset reads the farmer estimates and the state codes, then joins
// them. Any failure here is fatal at startup.
func loadDataset(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*models.Dataset, error) {
	source, err := openSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	raw, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load farmer data: %w", err)
	}
	logger.Info("Loaded %d raw records", len(raw))

	fetcher := storage.NewStateCodeFetcher(cfg.StateCodesURL, cfg.FetchRetries, cfg.FetchTimeout, logger)
	lookup, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state codes: %w", err)
	}
	logger.Info("Loaded %d state codes", len(lookup))

	return services.NewEnricher(logger).Enrich(raw, lookup)
}

func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.RecordSource, error) {
	switch cfg.DataSource {
	case config.SourcePostgres:
		ps, err := storage.NewPostgresSource(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			return nil, err
		}
		return ps, nil
	default:
		return storage.NewXLSXSource(cfg.DataPath, cfg.DataSheet, logger), nil
	}
}

func runSnapshot(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Capturing dashboard snapshots from %s ===", cfg.SnapshotBaseURL)

	files, err := snapshot.New(cfg, logger).Run(ctx)
	logger.Info("Wrote %d snapshot(s) to %s", len(files), cfg.SnapshotDir)
	return err
}
