// movies-api/cmd/moviesapi/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	httpAPI "movies-api/internal/api"
	"movies-api/internal/config"
	grpcServer "movies-api/internal/grpc"
	"movies-api/internal/store"
)

// maskPassword возвращает URL без пароля для логирования
func maskPassword(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable database url>"
	}
	return u.Redacted()
}

// openStore выбирает реализацию хранилища по MOVIES_STORE
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.MovieStore, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory movie store, data will not survive a restart")
		return store.NewMemoryMovieStore(logger), nil
	}

	logger.Info("Attempting to connect to movies database", slog.String("dbURL_used", maskPassword(cfg.DatabaseURL)))
	db, err := store.Open(ctx, cfg.DatabaseURL, store.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to movies PostgreSQL database.")

	movieStorage, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return movieStorage, nil
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	validate := validator.New()

	if err := run(cfg, logger, validate); err != nil {
		logger.Error("movies-api stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, validate *validator.Validate) error {
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	movieStorage, err := openStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		return fmt.Errorf("failed to initialize movie store: %w", err)
	}
	defer func() {
		logger.Info("Closing movie store...")
		if err := movieStorage.Close(); err != nil {
			logger.Error("Failed to close movie store", slog.String("error", err.Error()))
		}
	}()

	// --- gRPC ---
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GRPCPort, err)
	}
	grpcSrv := grpc.NewServer()
	grpcServer.Register(grpcSrv, grpcServer.NewServer(movieStorage, logger))
	reflection.Register(grpcSrv)

	go func() {
		logger.Info("MovieLookup gRPC server starting", slog.String("port", cfg.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("MovieLookup gRPC server Serve() failed", slog.String("error", err.Error()))
		}
	}()

	// --- HTTP ---
	movieAPIHandler := httpAPI.NewMovieHandler(movieStorage, logger, validate)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpAPI.NewRouter(movieAPIHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("movies-api HTTP server starting", slog.String("port", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("movies-api shutting down...", slog.String("signal", sig.String()))
	case err := <-serveErr:
		grpcSrv.Stop()
		return fmt.Errorf("http server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		logger.Info("MovieLookup gRPC server gracefully stopped.")
	case <-ctx.Done():
		grpcSrv.Stop()
		logger.Warn("MovieLookup gRPC server forced to stop")
	}
	return nil
}
