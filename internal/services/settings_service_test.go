package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkenzhebek/tgcrm-bot/internal/config"
)

type fakeSettingRepo struct {
	values map[string]string
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: map[string]string{}}
}

func (f *fakeSettingRepo) Get(key string) (string, error) { return f.values[key], nil }

func (f *fakeSettingRepo) Set(key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeSettingRepo) All() (map[string]string, error) { return f.values, nil }

func testConfig() *config.Config {
	return &config.Config{
		WorkdayStart:       "09:00",
		WorkdayEnd:         "18:00",
		LunchStart:         "13:00",
		LunchEnd:           "14:00",
		SupervisorPassword: "secret",
		OpenAIKey:          "sk-static",
	}
}

func TestSettingsFallBackToConfig(t *testing.T) {
	s := NewSettingsService(newFakeSettingRepo(), testConfig())

	start, end := s.WorkdayRange()
	assert.Equal(t, "09:00", start)
	assert.Equal(t, "18:00", end)
	assert.Equal(t, "secret", s.SupervisorPassword())
	assert.Equal(t, "sk-static", s.OpenAIKey())
}

func TestSettingsOverrideWins(t *testing.T) {
	repo := newFakeSettingRepo()
	s := NewSettingsService(repo, testConfig())

	require.NoError(t, s.Update(SettingWorkdayHours, "08:30-17:30"))
	require.NoError(t, s.Update(SettingPassword, "better"))

	start, end := s.WorkdayRange()
	assert.Equal(t, "08:30", start)
	assert.Equal(t, "17:30", end)
	assert.Equal(t, "better", s.SupervisorPassword())
}

func TestSettingsUpdateValidation(t *testing.T) {
	s := NewSettingsService(newFakeSettingRepo(), testConfig())

	assert.ErrorIs(t, s.Update(SettingWorkdayHours, "9-18"), ErrInvalidSetting)
	assert.ErrorIs(t, s.Update(SettingLunchHours, "обед"), ErrInvalidSetting)
	assert.ErrorIs(t, s.Update(SettingPassword, "  "), ErrInvalidSetting)
	assert.ErrorIs(t, s.Update("favorite_color", "red"), ErrInvalidSetting)
}

func TestWithinWorkingHours(t *testing.T) {
	s := NewSettingsService(newFakeSettingRepo(), testConfig())

	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.September, 1, hour, minute, 0, 0, time.UTC)
	}

	assert.False(t, s.WithinWorkingHours(at(8, 59)), "before the workday")
	assert.True(t, s.WithinWorkingHours(at(9, 0)))
	assert.True(t, s.WithinWorkingHours(at(12, 59)))
	assert.False(t, s.WithinWorkingHours(at(13, 30)), "lunch")
	assert.True(t, s.WithinWorkingHours(at(14, 1)))
	assert.True(t, s.WithinWorkingHours(at(18, 0)))
	assert.False(t, s.WithinWorkingHours(at(18, 1)), "after the workday")
}
