package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	TelegramBotToken   string
	DatabaseURL        string
	RedisURL           string
	OpenAIKey          string
	OpenAIModel        string
	SupervisorPassword string
	WorkdayStart       string
	WorkdayEnd         string
	LunchStart         string
	LunchEnd           string
	Timezone           string
	Env                string
}

// LoadConfig reads configuration from the environment. Missing required
// credentials are a startup error; the process must not accept traffic
// without them.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg := &Config{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		SupervisorPassword: os.Getenv("SUPERVISOR_PASSWORD"),
		WorkdayStart:       os.Getenv("WORKDAY_START"),
		WorkdayEnd:         os.Getenv("WORKDAY_END"),
		LunchStart:         os.Getenv("LUNCH_START"),
		LunchEnd:           os.Getenv("LUNCH_END"),
		Timezone:           os.Getenv("TIMEZONE"),
		Env:                os.Getenv("ENV"),
	}

	// Default values
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o"
	}
	if cfg.WorkdayStart == "" {
		cfg.WorkdayStart = "09:00"
	}
	if cfg.WorkdayEnd == "" {
		cfg.WorkdayEnd = "18:00"
	}
	if cfg.LunchStart == "" {
		cfg.LunchStart = "13:00"
	}
	if cfg.LunchEnd == "" {
		cfg.LunchEnd = "14:00"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Almaty"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	return cfg, nil
}
