package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathakanu/lifesync/internal/api"
	"github.com/pathakanu/lifesync/internal/assistant"
	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/config"
	"github.com/pathakanu/lifesync/internal/database"
	"github.com/pathakanu/lifesync/internal/line"
	"github.com/pathakanu/lifesync/internal/logger"
	"github.com/pathakanu/lifesync/internal/notify"
	myopenai "github.com/pathakanu/lifesync/internal/openai"
	"github.com/pathakanu/lifesync/internal/store"
	"github.com/pathakanu/lifesync/internal/telegram"
	"github.com/pathakanu/lifesync/internal/twilio"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Warn("logger setup incomplete", "error", err)
	}

	db, err := database.New(database.Options{
		URL:          cfg.DatabaseURL,
		SQLitePath:   cfg.SQLitePath,
		GormLogLevel: cfg.GormLogLevel,
	}, log)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	blobs := database.NewBlobStore(db)

	bus := newBus(cfg, log)

	profiles := store.NewProfileStore(blobs, bus, log)
	reminders := store.NewReminderLog(blobs, bus, log)
	svc := assistant.New(assistant.Deps{
		Profiles:     profiles,
		Schedules:    store.NewScheduleStore(blobs, bus, log),
		Reminders:    reminders,
		Permission:   store.NewPermission(blobs, cfg.NotificationsGranted, bus, log),
		State:        store.NewMatcherState(blobs),
		AI:           myopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		Notifier:     newNotifier(cfg, profiles, log),
		Location:     cfg.LocalTimezone,
		PollInterval: cfg.PollInterval,
		Logger:       log,
	})
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set, AI features will report errors")
	}

	if err := svc.StartScheduler(); err != nil {
		log.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(api.Config{Service: svc, Events: bus, Logger: log}),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "timezone", cfg.LocalTimezone.String(), "poll_interval", cfg.PollInterval)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server, svc, bus, db, log)
}

func newBus(cfg *config.Config, log *slog.Logger) broadcast.Bus {
	if cfg.RedisURL == "" {
		return broadcast.NewMemoryBus(32)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus, err := broadcast.NewRedisBus(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, using in-process broadcast", "error", err)
		return broadcast.NewMemoryBus(32)
	}
	log.Info("broadcasting changes over redis", "channel", broadcast.DefaultChannel)
	return bus
}

func newNotifier(cfg *config.Config, profiles *store.ProfileStore, log *slog.Logger) notify.Notifier {
	fanout := notify.NewFanout(notify.Channel{Name: "log", Notifier: notify.NewLogNotifier(log)})

	if cfg.TwilioEnabled() {
		fanout.Add("whatsapp", twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber,
			func(ctx context.Context) (string, error) {
				profile, err := profiles.Load(ctx)
				if err != nil {
					return "", err
				}
				return profile.Mobile, nil
			}, log))
	}
	if cfg.TelegramEnabled() {
		client, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn("telegram channel disabled", "error", err)
		} else {
			fanout.Add("telegram", client)
		}
	}
	if cfg.LineEnabled() {
		client, err := line.New(cfg.LineChannelSecret, cfg.LineChannelToken, cfg.LineUserID)
		if err != nil {
			log.Warn("line channel disabled", "error", err)
		} else {
			fanout.Add("line", client)
		}
	}

	log.Info("notification channels ready", "channels", fanout.Names())
	return fanout
}

func waitForShutdown(server *http.Server, svc *assistant.Assistant, bus broadcast.Bus, db *gorm.DB, log *slog.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	svc.StopScheduler()
	if err := bus.Close(); err != nil {
		log.Warn("broadcast close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		log.Warn("database close error", "error", err)
	}
}
