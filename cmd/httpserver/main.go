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

	"contactbook/contact"
	"contactbook/httpserver"
	"contactbook/pkg/config"
	"contactbook/pkg/logger"
	"contactbook/pkg/sentry"
	"contactbook/store"

	sentrygo "github.com/getsentry/sentry-go"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Cannot load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done or the listener fails. Storage, the logger and
// sentry are released before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	err := sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	zapLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	repo, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.DB.Driver, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Cannot close storage", "error", err)
		}
	}()

	if cfg.SeedContacts {
		n, err := contact.Seed(ctx, repo, contact.DevelopmentContacts())
		if err != nil {
			return fmt.Errorf("seed contacts: %w", err)
		}
		slog.Info("seeded contacts", "inserted", n)
	}

	server := httpserver.Default(cfg,
		httpserver.WithLogger(zapLogger),
		httpserver.WithContactService(contact.NewUsecase(repo)),
	)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("server started!", "addr", server.Addr, "driver", cfg.DB.Driver)
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		slog.Info("server stopped")
		return nil
	}
}
