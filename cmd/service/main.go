// cmd/service/main.go
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

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"omnilertlab-service/internal/aggregator"
	"omnilertlab-service/internal/api"
	"omnilertlab-service/internal/assistant"
	"omnilertlab-service/internal/config"
	"omnilertlab-service/internal/github"
	"omnilertlab-service/internal/intake"
	"omnilertlab-service/internal/mailer"
	"omnilertlab-service/internal/store"
	"omnilertlab-service/internal/telegram"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	perplexityBaseURL = "https://api.perplexity.ai"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Optional database: order persistence degrades to a logged skip
	// when DB_URL is absent.
	var orderStore intake.OrderStore
	if cfg.DBURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbpool.Close()
		logger.Info("Database connection established")

		if err := runMigrations(cfg.DBURL); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		orderStore = store.New(dbpool)
	} else {
		logger.Warn("DB_URL not set, order persistence disabled")
	}

	// 5. Initialize application components
	ghClient := github.NewClient(cfg.GithubToken, logger)
	projects := aggregator.NewService(ghClient, logger, cfg.GithubUsername, cfg.GithubPerPage)

	gateway := assistant.NewGateway(buildProviders(cfg, logger), cfg.SystemPrompt, logger)
	bridge := telegram.NewBridge(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramWebhookSecret, logger)
	orderMailer := mailer.NewMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.MailOperator, logger)
	orderIntake := intake.NewService(orderStore, orderMailer, bridge, logger)
	publisher := telegram.NewLogPublisher(logger)

	router := api.NewRouter(projects, gateway, bridge, orderIntake, publisher, cfg.ProjectsCacheTTL, logger)

	// 6. Start the HTTP server
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server failure
	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received. Draining connections.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// buildProviders assembles the fallback chain in order. A provider with no
// credential is simply not constructed; the gateway skips nothing at
// request time.
func buildProviders(cfg *config.Config, logger *slog.Logger) []assistant.Provider {
	var providers []assistant.Provider

	if cfg.GroqAPIKey != "" {
		temperature := 0.7
		providers = append(providers, assistant.NewOpenAIProvider(
			assistant.ProviderGroq, groqBaseURL, cfg.GroqAPIKey,
			cfg.GroqModel, cfg.AIMaxTokens, &temperature, logger,
		))
	}
	if cfg.PerplexityAPIKey != "" {
		providers = append(providers, assistant.NewOpenAIProvider(
			assistant.ProviderPerplexity, perplexityBaseURL, cfg.PerplexityAPIKey,
			cfg.PerplexityModel, cfg.AIMaxTokens, nil, logger,
		))
	}

	if len(providers) == 0 {
		logger.Warn("No AI provider configured, assistant will serve the offline sentinel")
	}
	return providers
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
