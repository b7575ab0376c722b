package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkenzhebek/tgcrm-bot/internal/config"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

// Setting keys stored in the bot_settings table.
const (
	SettingWorkdayHours = "workday_hours"
	SettingLunchHours   = "lunch_hours"
	SettingOpenAIKey    = "openai_api_key"
	SettingPassword     = "supervisor_password"
)

// ErrInvalidSetting is returned when a value fails its format rule.
var ErrInvalidSetting = errors.New("invalid setting value")

var timeRangeRe = regexp.MustCompile(`^\d{2}:\d{2}-\d{2}:\d{2}$`)

// SettingsService reads runtime overrides from the settings store, falling
// back to static configuration when a key has no override.
type SettingsService struct {
	repo repositories.SettingRepo
	cfg  *config.Config
}

func NewSettingsService(repo repositories.SettingRepo, cfg *config.Config) *SettingsService {
	return &SettingsService{repo: repo, cfg: cfg}
}

func (s *SettingsService) overrideOr(key, fallback string) string {
	value, err := s.repo.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("settings lookup failed, using fallback")
		return fallback
	}
	if value == "" {
		return fallback
	}
	return value
}

// WorkdayRange returns the configured working window as "HH:MM" bounds.
func (s *SettingsService) WorkdayRange() (string, string) {
	return s.rangeOr(SettingWorkdayHours, s.cfg.WorkdayStart, s.cfg.WorkdayEnd)
}

// LunchRange returns the lunch window as "HH:MM" bounds.
func (s *SettingsService) LunchRange() (string, string) {
	return s.rangeOr(SettingLunchHours, s.cfg.LunchStart, s.cfg.LunchEnd)
}

func (s *SettingsService) rangeOr(key, fallbackStart, fallbackEnd string) (string, string) {
	value := s.overrideOr(key, "")
	if value == "" || !timeRangeRe.MatchString(value) {
		return fallbackStart, fallbackEnd
	}
	parts := strings.SplitN(value, "-", 2)
	return parts[0], parts[1]
}

func (s *SettingsService) SupervisorPassword() string {
	return s.overrideOr(SettingPassword, s.cfg.SupervisorPassword)
}

func (s *SettingsService) OpenAIKey() string {
	return s.overrideOr(SettingOpenAIKey, s.cfg.OpenAIKey)
}

// Update validates and persists one setting. Time ranges must be
// HH:MM-HH:MM; other values are stored as trimmed text.
func (s *SettingsService) Update(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case SettingWorkdayHours, SettingLunchHours:
		if !timeRangeRe.MatchString(value) {
			return fmt.Errorf("%w: %q is not HH:MM-HH:MM", ErrInvalidSetting, value)
		}
	case SettingOpenAIKey, SettingPassword:
		if value == "" {
			return fmt.Errorf("%w: empty value", ErrInvalidSetting)
		}
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}

	return s.repo.Set(key, value)
}

// WithinWorkingHours reports whether t falls inside the working window and
// outside the lunch window.
func (s *SettingsService) WithinWorkingHours(t time.Time) bool {
	cur := t.Hour()*60 + t.Minute()

	workStart, workEnd := s.WorkdayRange()
	lunchStart, lunchEnd := s.LunchRange()

	within := clockMinutes(workStart) <= cur && cur <= clockMinutes(workEnd)
	atLunch := clockMinutes(lunchStart) <= cur && cur <= clockMinutes(lunchEnd)
	return within && !atLunch
}

func clockMinutes(clock string) int {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}
