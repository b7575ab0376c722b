package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

type ReminderRepo interface {
	Create(reminder *models.Reminder) error
	// DueUnsent returns unsent reminders whose time has passed, with the
	// deal, client and owning manager preloaded for delivery.
	DueUnsent(now time.Time) ([]models.Reminder, error)
	// MarkSent flips is_sent exactly once; already-sent rows are untouched.
	MarkSent(id uint) error
}

type reminderRepo struct {
	db *gorm.DB
}

func NewReminderRepo(db *gorm.DB) ReminderRepo {
	return &reminderRepo{db: db}
}

func (r *reminderRepo) Create(reminder *models.Reminder) error {
	return r.db.Create(reminder).Error
}

func (r *reminderRepo) DueUnsent(now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.Preload("Deal").Preload("Deal.Client").Preload("Deal.Manager").
		Where("is_sent = ? AND remind_at <= ?", false, now).
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepo) MarkSent(id uint) error {
	return r.db.Model(&models.Reminder{}).
		Where("id = ? AND is_sent = ?", id, false).
		Update("is_sent", true).Error
}
