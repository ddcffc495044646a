package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/stock-flow/internal/catalog"
	"github.com/Houeta/stock-flow/internal/config"
	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/metrics"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/internal/report"
	"github.com/Houeta/stock-flow/internal/repository"
	"github.com/Houeta/stock-flow/internal/repository/jsonfile"
	"github.com/Houeta/stock-flow/internal/repository/sqlite"
	"github.com/Houeta/stock-flow/internal/services/checker"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// Process exit codes.
const (
	exitOK              = 0
	exitFatal           = 1
	exitDeliveryFailure = 2
)

const metricsPushTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	os.Exit(run())
}

// run performs one stock check and returns the process exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return exitFatal
	}

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env, os.Stdout)

	// Cancel the run on Ctrl+C or SIGTERM and bound it with the configured timeout.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	recorder := metrics.New(logger, cfg.Metrics.PushURL, cfg.Metrics.Job)

	stockChecker, closeRepo, err := buildChecker(ctx, logger, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize application", "error", err)
		return exitFatal
	}
	defer closeRepo()

	logger.InfoContext(ctx, "Stock check started", "store", cfg.Store.URL, "storage", cfg.Storage.Driver)

	started := time.Now()
	result, runErr := stockChecker.Run(ctx)
	recorder.Observe(result, time.Since(started), runErr)

	// The run context may already be done; metrics get their own deadline.
	pushCtx, pushCancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
	defer pushCancel()
	if err = recorder.Push(pushCtx); err != nil {
		logger.WarnContext(ctx, "Failed to push metrics", "error", err)
	}

	switch {
	case runErr == nil:
		logger.InfoContext(ctx, "Stock check finished",
			"run_id", result.RunID, "products", result.Products, "changes", len(result.Changes), "notified", result.Notified)
		return exitOK
	case errs.Is(runErr, errs.ErrDelivery):
		logger.ErrorContext(ctx, "Stock state saved, but the report was not delivered", "error", runErr)
		return exitDeliveryFailure
	default:
		logger.ErrorContext(ctx, "Stock check failed", "error", runErr)
		return exitFatal
	}
}

// buildChecker wires the catalog client, state repository, renderer and notifiers.
// The returned func releases the repository.
func buildChecker(ctx context.Context, logger *slog.Logger, cfg *config.Config) (checker.Interface, func(), error) {
	fetcher, err := catalog.NewClient(logger, catalog.Options{
		BaseURL:    cfg.Store.URL,
		PageSize:   cfg.Store.PageSize,
		MaxPages:   cfg.Store.MaxPages,
		Timeout:    cfg.Store.Timeout,
		RetryCount: cfg.Store.Retries,
		RetryWait:  cfg.Store.RetryWait,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init catalog client: %w", err)
	}

	renderer, err := report.NewRenderer(cfg.Store.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init report renderer: %w", err)
	}

	notifiers, err := buildNotifiers(logger, cfg)
	if err != nil {
		return nil, nil, err
	}

	repo, err := openRepository(ctx, logger, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	closeRepo := func() {
		if cerr := repo.Close(); cerr != nil {
			logger.Error("Failed to close state repository", "error", cerr)
		}
	}

	stockChecker := checker.NewChecker(logger, fetcher, repo, renderer, notifiers,
		checker.Options{OnlyNotifyOnChanges: cfg.OnlyNotifyOnChanges})

	return stockChecker, closeRepo, nil
}

// buildNotifiers always includes email; Telegram is added when a token is configured.
func buildNotifiers(logger *slog.Logger, cfg *config.Config) (notifier.Multi, error) {
	email, err := notifier.NewEmail(logger, notifier.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
		Timeout:  cfg.Store.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init email notifier: %w", err)
	}

	notifiers := notifier.Multi{email}

	if cfg.Tg.Token != "" {
		tg, err := notifier.NewTelegram(logger, cfg.Tg.Token, cfg.Tg.ChatIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to init telegram notifier: %w", err)
		}
		notifiers = append(notifiers, tg)
	}

	return notifiers, nil
}

// openRepository selects the state backend by driver name.
func openRepository(ctx context.Context, logger *slog.Logger, cfg config.Storage) (repository.StateRepository, error) {
	switch cfg.Driver {
	case repository.DriverJSON:
		return jsonfile.New(logger, cfg.Path), nil
	case repository.DriverSQLite:
		repo, err := sqlite.NewRepository(ctx, logger, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite state: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// setupLogger returns a logger writing to w, configured for the given environment.
func setupLogger(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
