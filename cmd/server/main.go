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

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/forkthebill/internal/config"
	"github.com/mmynk/forkthebill/internal/ingestion"
	"github.com/mmynk/forkthebill/internal/lock"
	"github.com/mmynk/forkthebill/internal/metrics"
	"github.com/mmynk/forkthebill/internal/middleware"
	"github.com/mmynk/forkthebill/internal/rest"
	"github.com/mmynk/forkthebill/internal/service"
	"github.com/mmynk/forkthebill/internal/slug"
	"github.com/mmynk/forkthebill/internal/storage/postgres"
	"github.com/mmynk/forkthebill/internal/storage/sqlite"
	"github.com/mmynk/forkthebill/internal/storage/sqlstore"
	"github.com/mmynk/forkthebill/pkg/api/apiconnect"
	"github.com/mmynk/forkthebill/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Configure(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	m := metrics.New()
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithSlugGenerator(slug.NewGenerator(store, slug.WithMaxAttempts(cfg.Expense.SlugMaxAttempts))),
	}

	if cfg.Redis.Addr != "" {
		locker, err := lock.NewRedisLocker(ctx, cfg.Redis.Addr, slog.Default())
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer locker.Close()
		opts = append(opts, service.WithLocker(locker))
		slog.Info("Using redis expense locks", "addr", cfg.Redis.Addr)
	}

	if cfg.Gemini.APIKey != "" {
		parser, err := ingestion.NewGeminiParser(ingestion.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Logger:  slog.Default(),
		})
		if err != nil {
			return fmt.Errorf("initialize bill parser: %w", err)
		}
		opts = append(opts, service.WithParser(parser))
	} else {
		slog.Warn("GEMINI_API_KEY not set, bill uploads are disabled")
	}

	if cfg.Expense.TotalCheckEnabled {
		opts = append(opts, service.WithTotalCheck(cfg.TotalCheckMargin()))
	}

	svc := service.NewExpenseService(store, opts...)

	router := mux.NewRouter()

	// Connect RPCs
	rpcPath, rpcHandler := apiconnect.NewExpenseServiceHandler(
		service.NewExpenseHandler(svc),
		connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor(m)),
	)
	router.PathPrefix(rpcPath).Handler(rpcHandler)

	rest.NewHandler(svc).Register(router)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// h2c for HTTP/2 without TLS, needed by Connect streaming clients
	handler := h2c.NewHandler(middleware.HTTPLogging(middleware.CORS(router)), &http2.Server{})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", server.Addr, "url", "http://localhost"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StorageConfig) (*sqlstore.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.Path)
	}
}
