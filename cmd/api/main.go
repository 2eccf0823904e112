package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/app"
	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/config"
	"github.com/Freeeeeet/tutorhub/internal/controller"
	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/handler"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting tutorhub api",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("addr", cfg.HTTPAddr))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := app.InitTracing(ctx, "tutorhub-api", cfg.OTLPEndpoint, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracing", zap.Error(err))
		}
	}()

	store, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = events.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			logger.Error("Telegram unavailable, notifications disabled", zap.Error(err))
		}
	}

	publisher, closePublisher := buildPublisher(cfg, tgBot, store.Users, logger)
	defer closePublisher()

	availability := service.NewAvailabilityService(store.Tx, store.Availability, store.Bookings, store.Users, publisher, logger)
	svc := handler.Services{
		Availability: availability,
		Bookings:     service.NewBookingService(store.Tx, store.Bookings, store.Availability, store.Users, publisher, logger),
		Users:        service.NewUserService(store.Users, store.Availability, store.StudyGroups, logger),
		StudyGroups:  service.NewStudyGroupService(store.StudyGroups, logger),
	}
	verifier := auth.NewVerifier(cfg.JWTSecret)

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, svc.Users, svc.Bookings, verifier, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands menu", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	var pinger handler.Pinger
	if store.Pool != nil {
		pinger = store.Pool
	}
	h := handler.New(svc, pinger, logger)

	scheduler := app.NewScheduler(availability, cfg.SlotExpiryInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h.Router(verifier),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildPublisher fans events out to every configured sink. Unreachable
// sinks are logged and skipped so the API still starts.
func buildPublisher(cfg *config.Config, tgBot *bot.Bot, users events.UserLookup, logger *zap.Logger) (events.Publisher, func()) {
	var (
		sinks   events.Multi
		closers []func()
	)

	if cfg.NatsURL != "" {
		nats, err := events.NewNatsPublisher(cfg.NatsURL, logger)
		if err != nil {
			logger.Error("NATS unavailable, events will not be published", zap.Error(err))
		} else {
			sinks = append(sinks, nats)
			closers = append(closers, func() {
				if err := nats.Close(); err != nil {
					logger.Warn("Failed to close NATS connection", zap.Error(err))
				}
			})
		}
	}

	if tgBot != nil {
		sinks = append(sinks, events.NewTelegramNotifier(tgBot, users, logger))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(sinks) == 0 {
		return events.Nop{}, closeAll
	}
	return sinks, closeAll
}
