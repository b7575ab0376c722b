package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

type SettingRepo interface {
	// Get returns "" with no error when the key has no override.
	Get(key string) (string, error)
	Set(key, value string) error
	All() (map[string]string, error)
}

type settingRepo struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) SettingRepo {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(key string) (string, error) {
	var setting models.BotSetting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *settingRepo) Set(key, value string) error {
	setting := models.BotSetting{Key: key, Value: value}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&setting).Error
}

func (r *settingRepo) All() (map[string]string, error) {
	var settings []models.BotSetting
	if err := r.db.Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}
