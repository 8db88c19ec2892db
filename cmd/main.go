package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	httpapi "github.com/gatherly/backend/internal/api/http"
	"github.com/gatherly/backend/internal/config"
	"github.com/gatherly/backend/internal/identity"
	"github.com/gatherly/backend/internal/realtime"
	"github.com/gatherly/backend/internal/repository"
	"github.com/gatherly/backend/internal/repository/model"
	"github.com/gatherly/backend/internal/service"
	"github.com/gatherly/backend/internal/storage"
	"github.com/gatherly/backend/lib/logger/slogpretty"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	store := repository.NewGormStore(db)
	hub := realtime.NewHub(log)

	uploader, err := storage.NewLocalUploader(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		log.Error("failed to init upload storage", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := service.NewNotifier(store, hub, log)
	chatService := service.NewChatService(store, hub, log)
	eventService := service.NewEventService(store, chatService, notifier, hub, log)
	membershipService := service.NewMembershipService(store, chatService, eventService, notifier, hub, log)
	profileService := service.NewProfileService(store, eventService, uploader, log)

	eventController := httpapi.NewEventController(eventService)
	membershipController := httpapi.NewMembershipController(membershipService, notifier)
	chatController := httpapi.NewChatController(chatService)
	profileController := httpapi.NewProfileController(profileService)
	wsController := httpapi.NewWSController(hub, store)

	resolver := &identity.TokenResolver{}

	router := httpapi.SetupRouter(
		resolver,
		eventController,
		membershipController,
		chatController,
		profileController,
		wsController,
	)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(
		&model.Event{},
		&model.Membership{},
		&model.Chat{},
		&model.ChatParticipant{},
		&model.ChatMessage{},
		&model.EventProfile{},
		&model.ProfileParticipant{},
		&model.Notification{},
		&model.OccurrenceParticipation{},
	)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
