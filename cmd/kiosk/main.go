package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/eysrewards/kiosk/internal/codegen"
	"github.com/eysrewards/kiosk/internal/config"
	"github.com/eysrewards/kiosk/internal/issue"
	"github.com/eysrewards/kiosk/internal/ledger"
	"github.com/eysrewards/kiosk/internal/lookup"
	"github.com/eysrewards/kiosk/internal/qr"
	"github.com/eysrewards/kiosk/internal/server"
)

func main() {
	ctx := context.Background()

	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.App)
	defer logger.Sync()

	logger.Info("starting rewards kiosk",
		zap.String("environment", cfg.App.Environment),
		zap.String("ledger_endpoint", cfg.Ledger.Endpoint),
		zap.String("code_prefix", cfg.Campaign.CodePrefix),
	)

	// Wire the issuance pipeline and the lookup path
	ledgerClient := ledger.NewClient(cfg.Ledger.Endpoint, time.Duration(cfg.Ledger.Timeout)*time.Second, logger)
	renderer := qr.NewRenderer(cfg.Campaign.QRSize)
	issuer := issue.NewCoordinator(
		codegen.New(cfg.Campaign.CodePrefix),
		renderer,
		ledgerClient,
		time.Duration(cfg.Ledger.Timeout)*time.Second,
		logger,
	)
	lookups := lookup.NewCoordinator(ledgerClient, logger)

	kiosk := server.New(issuer, lookups, renderer, cfg.Campaign, logger)

	// Create server; h2c so we can serve HTTP/2 without TLS
	srv := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		Handler:        h2c.NewHandler(kiosk.Handler(), &http2.Server{}),
	}

	// Start server in goroutine
	go func() {
		logger.Info("kiosk listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Graceful shutdown; a pending ledger write gets to settle within the
	// shutdown window, it is never awaited beyond that.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("kiosk exited gracefully")
}

func newLogger(app config.AppConfig) *zap.Logger {
	var logger *zap.Logger
	var err error
	if app.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
