package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/config"
	"github.com/eysrewards/kiosk/internal/database"
	"github.com/eysrewards/kiosk/internal/ledgerd"
)

// ledgerd is a development stand-in for the remote ledger: it speaks the
// same shared endpoint (registerGAE writes, gaeStats reads) backed by
// Postgres, so the kiosk can run end-to-end locally.
func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.App.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("database connect", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close", zap.Error(err))
		}
	}()

	if err := ledgerd.EnsureSchema(db.Postgres); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}

	service := ledgerd.NewService(db.Postgres, logger)

	mux := http.NewServeMux()
	mux.Handle("/ledger", service.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"rewards-ledgerd"}`))
	})
	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Postgres.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"postgres unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","postgres":"connected"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      mux,
	}

	go func() {
		logger.Info("ledgerd listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("ledgerd exited gracefully")
}
