package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financas/internal/auth"
	"financas/internal/config"
	"financas/internal/events"
	apphttp "financas/internal/http"
	"financas/internal/ledger"
	applog "financas/internal/log"
	"financas/internal/oauth"
	"financas/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting financas", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	st, err := store.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store",
			applog.FieldBackend, cfg.DataBackend,
			applog.FieldError, err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("Store initialized", applog.FieldBackend, cfg.DataBackend)

	// AMQP publishing is optional; the ledger runs without it.
	var publisher ledger.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Event publishing enabled")
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	var google *oauth.Google
	if cfg.OAuthEnabled() {
		google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, logger)
		logger.Info("Google sign-in enabled")
	} else {
		logger.Info("Google sign-in disabled - credentials not configured")
	}

	ledgerSvc := ledger.NewService(st, publisher, logger)
	accounts := auth.NewService(st, logger)
	sessions := auth.NewSessions(cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, accounts, sessions, google, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
