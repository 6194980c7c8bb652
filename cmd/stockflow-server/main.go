// Command stockflow-server runs the warehouse HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/application/services"
	"github.com/quayside/stockflow/pkg/infrastructure/recordstore/memory"
	"github.com/quayside/stockflow/pkg/infrastructure/recordstore/postgres"
	restclient "github.com/quayside/stockflow/pkg/infrastructure/recordstore/rest"
	storerepo "github.com/quayside/stockflow/pkg/infrastructure/repositories/store"
	"github.com/quayside/stockflow/pkg/interfaces/rest"
	"github.com/quayside/stockflow/pkg/recordstore"
)

func main() {
	// A missing .env is fine; the environment itself may carry the config.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	store, cleanup, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := services.NewWarehouseService(services.Deps{
		Units:       storerepo.NewStockUnitRepository(store),
		Items:       storerepo.NewItemRepository(store),
		Locations:   storerepo.NewLocationRepository(store),
		Receipts:    storerepo.NewReceiptRepository(store),
		Demands:     storerepo.NewDemandRepository(store),
		Allocations: storerepo.NewAllocationRepository(store),
		Movements:   storerepo.NewMovementRepository(store),

		NonAllocatableLocationIDs: splitList(getEnv("STOCKFLOW_NON_ALLOCATABLE_LOCATIONS", "")),

		Logger: logger,
		Tracer: otel.Tracer("stockflow"),
	})

	router := rest.NewRouter(rest.NewHandler(svc, logger))
	srv := &http.Server{
		Addr:         getEnv("STOCKFLOW_LISTEN_ADDR", ":8080"),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore selects the record store adapter from STOCKFLOW_STORE:
// memory (default), rest, or postgres.
func openStore(ctx context.Context, logger *zap.Logger) (recordstore.Store, func(), error) {
	kind := getEnv("STOCKFLOW_STORE", "memory")
	switch kind {
	case "memory":
		logger.Warn("using in-memory record store; data is not persisted")
		return memory.NewStore(), func() {}, nil

	case "rest":
		baseURL := os.Getenv("STOCKFLOW_STORE_URL")
		if baseURL == "" {
			return nil, nil, fmt.Errorf("STOCKFLOW_STORE_URL is required for the rest store")
		}
		client := restclient.NewClient(restclient.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("STOCKFLOW_STORE_API_KEY"),
		})
		return client, func() {}, nil

	case "postgres":
		dsn := os.Getenv("STOCKFLOW_DATABASE_URL")
		if dsn == "" {
			return nil, nil, fmt.Errorf("STOCKFLOW_DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		store := postgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
