package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offerte_delivery_backend/internal/adapters"
	"offerte_delivery_backend/internal/auth"
	"offerte_delivery_backend/internal/branding"
	"offerte_delivery_backend/internal/email"
	apphttp "offerte_delivery_backend/internal/http"
	"offerte_delivery_backend/internal/http/router"
	"offerte_delivery_backend/internal/pdf"
	"offerte_delivery_backend/internal/quotes"
	"offerte_delivery_backend/platform/config"
	"offerte_delivery_backend/platform/db"
	"offerte_delivery_backend/platform/logger"
	"offerte_delivery_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Mail sender stays nil when delivery is not configured; the quotes
	// module then answers with a warning instead of sending.
	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
		log.Info("smtp sender initialized", "host", cfg.GetSMTPHost(), "from", cfg.GetEmailFromAddress())
	} else {
		log.Warn("email delivery is not configured; deliveries will be skipped with a warning")
	}

	renderer := initRenderer(cfg, log)
	logoFetcher := branding.NewFetcher()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, val)

	// Anti-Corruption Layer: quotes read caller profiles through an adapter
	// instead of importing the auth service directly.
	profiles := adapters.NewProfileAdapter(authModule.Service())
	quotesModule := quotes.NewModule(pool, profiles, renderer, logoFetcher, sender, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			authModule,
			quotesModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRenderer picks Gotenberg when configured and the local gofpdf renderer
// otherwise, so a bare deployment still produces documents.
func initRenderer(cfg *config.Config, log *logger.Logger) pdf.Renderer {
	if cfg.IsGotenbergEnabled() {
		renderer, err := pdf.NewGotenbergRenderer(pdf.NewGotenbergClient(
			cfg.GetGotenbergURL(), cfg.GetGotenbergUsername(), cfg.GetGotenbergPassword(),
		))
		if err != nil {
			log.Error("failed to initialize gotenberg renderer, falling back to local", "error", err)
			return pdf.NewLocalRenderer()
		}
		log.Info("gotenberg PDF renderer initialized", "url", cfg.GetGotenbergURL())
		return renderer
	}
	return pdf.NewLocalRenderer()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
