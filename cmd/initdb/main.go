package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"github.com/dkenzhebek/tgcrm-bot/internal/config"
	"github.com/dkenzhebek/tgcrm-bot/internal/shared/retry"
	"github.com/dkenzhebek/tgcrm-bot/internal/shared/utils"
)

// initdb applies pending schema migrations, retrying while the database
// comes up. Meant to run before the bot in container orchestration.
func main() {
	utils.InitLogger()

	maxAttempts := flag.Uint64("max-attempts", 5, "connection attempts before giving up")
	retryBackoff := flag.Duration("retry-backoff", 2*time.Second, "initial delay between attempts")
	source := flag.String("migrations", "file://migrations", "migration source URL")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	policy := retry.Policy{MaxAttempts: *maxAttempts, BaseDelay: *retryBackoff, Multiplier: 2.0}

	attempt := 0
	err = policy.Do(context.Background(), func() error {
		attempt++

		m, err := migrate.New(*source, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")
			return err
		}
		defer m.Close()

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("migration failed")
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}

	log.Info().Msg("schema is up to date")
}
