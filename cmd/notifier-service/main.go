package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/failure-notifier/internal/config"
	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/cuongbtq/failure-notifier/internal/worker"
	"github.com/cuongbtq/failure-notifier/internal/worker/storage"
	"github.com/cuongbtq/failure-notifier/shared/logger"
	"github.com/cuongbtq/failure-notifier/shared/postgresql"
	"github.com/cuongbtq/failure-notifier/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("NOTIFIER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/notifier-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	watch := flag.Bool("watch", true, "Reload notifier settings when the config file changes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateNotifierConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting notifier service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("channel", cfg.Notifier.Channel),
		slog.String("level", cfg.Notifier.Level.String()),
		slog.String("sender", cfg.Notifier.Sender),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rabbitClient, err := rabbitmq.NewClient(ctx, cfg.RabbitMQ.ClientConfig(), appLogger.WithComponent("rabbitmq").Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	sender, err := initSender(cfg.Notifier, rabbitClient, appLogger)
	if err != nil {
		return err
	}

	backend := failure.NewBackend(cfg.Notifier.BackendConfig(), sender, appLogger.WithComponent("backend").Logger)

	workerCfg := &worker.Config{
		Logger:      appLogger.WithComponent("worker").Logger,
		Source:      rabbitClient,
		Notifier:    backend,
		WorkerID:    fmt.Sprintf("notifier-%s", uuid.NewString()[:8]),
		Concurrency: cfg.Worker.Concurrency,
		SendTimeout: cfg.Worker.SendTimeout,
	}

	if cfg.Database.Enabled() {
		dbClient, err := postgresql.NewClient(ctx, cfg.Database.ClientConfig(), appLogger.WithComponent("postgresql").Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		workerCfg.Jobs = storage.NewStorage(dbClient.GetDB(), appLogger.WithComponent("storage").Logger)
	}

	if *watch {
		watcher, err := config.NewWatcher(*configPath,
			func(c *config.Config) error { return cfg.Notifier.ValidateReload(c.Notifier) },
			func(c *config.Config) {
				backend.Apply(c.Notifier.BackendConfig())
				appLogger.Info("Notifier settings reloaded",
					slog.String("channel", c.Notifier.Channel),
					slog.String("level", c.Notifier.Level.String()),
					slog.Int("max_block_chars", c.Notifier.MaxBlockChars),
				)
			},
			appLogger.WithComponent("config").Logger,
		)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		go watcher.Start(ctx)
	}

	workerInstance := worker.NewWorker(workerCfg)

	errChan := make(chan error, 1)
	go func() {
		errChan <- workerInstance.Start(ctx)
	}()

	appLogger.Info("Notifier service started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		appLogger.Info("Received signal, shutting down gracefully")
		<-errChan
	case runErr = <-errChan:
		appLogger.Error("Worker stopped unexpectedly",
			slog.Any("error", runErr),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()

	if err := workerInstance.Stop(shutdownCtx); err != nil {
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit",
			slog.Any("error", err),
		)
	}

	appLogger.Info("Notifier service shutdown complete")
	return runErr
}

// initSender builds the Sender selected by the notifier config
func initSender(cfg config.NotifierConfig, rabbitClient *rabbitmq.Client, appLogger *logger.Logger) (failure.Sender, error) {
	switch cfg.Sender {
	case config.SenderRabbitMQ:
		if err := rabbitClient.DeclareExchange(cfg.Exchange, cfg.ExchangeType); err != nil {
			return nil, fmt.Errorf("failed to initialize notification exchange: %w", err)
		}
		return failure.NewPublishSender(rabbitClient, cfg.Exchange), nil
	default:
		return failure.NewLogSender(appLogger.WithComponent("sender").Logger), nil
	}
}
