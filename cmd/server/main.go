package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mailforward/internal/application/forward"
	"mailforward/internal/domain/payment"
	"mailforward/internal/domain/routing"
	"mailforward/internal/infrastructure/config"
	"mailforward/internal/infrastructure/gmail"
	"mailforward/internal/infrastructure/logging"
	"mailforward/internal/infrastructure/persistence/sqlite"
	"mailforward/internal/infrastructure/pubsub"
	"mailforward/internal/infrastructure/telegram"
	pubsubHandler "mailforward/internal/interfaces/pubsub"
	"mailforward/internal/interfaces/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, logFile, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closeQuietly(logFile)

	if !cfg.EnvFileLoaded {
		logger.Info().Msg("No .env file found, using environment variables")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Mail forwarder stopped")
	}
	logger.Info().Msg("Shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	gmailService, err := gmail.NewService(ctx, cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRefreshToken)
	if err != nil {
		return err
	}
	mailbox := gmail.NewClient(gmailService)

	labels, err := mailbox.ListLabels(ctx)
	if err != nil {
		return err
	}
	router, err := routing.NewRouter(cfg.LabelThreadMap, labels)
	if err != nil {
		return err
	}
	logger.Info().Int("routes", len(cfg.LabelThreadMap)).Msg("Labels resolved")

	var journal worker.Journal
	if cfg.DeliveryLogPath != "" {
		j, err := sqlite.NewDeliveryJournal(cfg.DeliveryLogPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close delivery journal")
			}
		}()
		journal = j
	}

	tg, err := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramGroupID)
	if err != nil {
		return err
	}

	queue := worker.NewQueue(tg, journal, logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(ctx)
	}()
	defer wg.Wait()

	coordinator := forward.NewCoordinator(
		mailbox,
		queue,
		router,
		payment.NewFormatter(cfg.FallbackRecipient),
		forward.NewProcessedSet(),
		cfg.MaxMessageLength,
		logger,
	)

	if cfg.PushEnabled() {
		closeSubscriber := startPush(ctx, cfg, mailbox, router, coordinator, logger)
		defer closeSubscriber()
	}

	logger.Info().Dur("interval", cfg.CheckInterval).Msg("Mail forwarder is running. Press Ctrl+C to stop.")

	if err := coordinator.Run(ctx, cfg.CheckInterval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Int("pending", queue.Len()).Msg("Shutting down gracefully...")
	return nil
}

// startPush enables the Gmail watch and wakes the poll loop on every
// notification. Failures only disable push; polling continues.
func startPush(
	ctx context.Context,
	cfg *config.Config,
	mailbox *gmail.Client,
	router *routing.Router,
	coordinator *forward.Coordinator,
	logger zerolog.Logger,
) func() {
	if err := mailbox.EnableWatch(ctx, cfg.TopicName, router.LabelIDs()); err != nil {
		logger.Warn().Err(err).Msg("Failed to enable watch")
	}

	subscriber, err := pubsub.NewSubscriber(ctx, cfg.GoogleCloudProject, cfg.SubscriptionID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create subscriber, push disabled")
		return func() {}
	}

	handler := pubsubHandler.NewHandler(coordinator, logger)

	go func() {
		if err := subscriber.Listen(ctx, handler.HandleNotification); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Pub/Sub listener error")
		}
	}()

	return func() { closeQuietly(subscriber) }
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error().Err(err).Msg("Close failed")
	}
}
