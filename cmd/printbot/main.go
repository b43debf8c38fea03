package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"printbot/internal/bot"
	"printbot/internal/config"
	"printbot/internal/dialog"
	"printbot/internal/order"
	"printbot/internal/pdf"
	"printbot/internal/storage"
	"printbot/pkg/logger"
	"printbot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine in production where the environment is real.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var sessions dialog.Store
	switch cfg.SessionBackend {
	case "redis":
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		sessions = dialog.NewRedisStore(redisClient, cfg.SessionTTL)
	default:
		memStore := dialog.NewMemoryStore(cfg.SessionTTL)
		defer memStore.Close()
		sessions = memStore
	}

	tg, err := bot.NewTelegram(cfg.TelegramToken, log)
	if err != nil {
		log.Fatal("Failed to create Telegram client", zap.Error(err))
	}

	inspector := pdf.NewInspector(tg, log)
	orders := order.NewService(
		pgStorage,
		order.PageRate{PricePerPage: cfg.PricePerPage},
		inspector,
		log,
	)

	handler := bot.NewHandler(sessions, orders, pgStorage, pgStorage, tg, cfg, log)
	tgBot := bot.New(tg, handler, log)

	if err := tgBot.Start(ctx); err != nil {
		log.Fatal("Bot stopped with error", zap.Error(err))
	}

	log.Info("Bot shutdown gracefully")
	return nil
}
