package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dkenzhebek/tgcrm-bot/internal/config"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/llm"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/session"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/sweep"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/telegram"
	"github.com/dkenzhebek/tgcrm-bot/internal/database"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
	"github.com/dkenzhebek/tgcrm-bot/internal/services"
	"github.com/dkenzhebek/tgcrm-bot/internal/shared/retry"
	"github.com/dkenzhebek/tgcrm-bot/internal/shared/utils"
)

const invoiceDir = "invoices"

func main() {
	utils.InitLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn().Err(err).Msg("database close failed")
		}
	}()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("invalid REDIS_URL, advice caching disabled")
		} else {
			cache = redis.NewClient(opts)
		}
	}

	if err := os.MkdirAll(invoiceDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", invoiceDir).Msg("invoice directory unavailable")
	}

	provider, err := telegram.NewBotProvider(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram connection failed")
	}

	settings := services.NewSettingsService(repositories.NewSettingRepo(db), cfg)
	advisor := llm.NewClient(cfg.OpenAIModel, func(ctx context.Context) string {
		return settings.OpenAIKey()
	}, cache, retry.DefaultPolicy)

	bot := services.NewBotService(
		provider,
		session.NewStore(),
		repositories.NewSessionRepo(db),
		services.NewDealService(db),
		settings,
		advisor,
		invoiceDir,
		loc,
	)

	sweeper := sweep.NewSweeper(
		repositories.NewReminderRepo(db),
		repositories.NewDealRepo(db),
		provider,
		settings.WithinWorkingHours,
	)
	scheduler := sweep.NewScheduler()
	if err := scheduler.Add("*/5 * * * *", sweeper.SendDueReminders); err != nil {
		log.Fatal().Err(err).Msg("reminder sweep registration failed")
	}
	if err := scheduler.Add("0 * * * *", sweeper.ProactiveFollowUp); err != nil {
		log.Fatal().Err(err).Msg("follow-up sweep registration failed")
	}
	scheduler.Start()
	defer scheduler.Stop()

	updates, err := provider.Updates()
	if err != nil {
		log.Fatal().Err(err).Msg("update stream failed")
	}
	log.Info().Str("env", cfg.Env).Msg("bot started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		bot.Serve(updates)
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("update stream closed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		provider.Close()
		<-done
	}
}
