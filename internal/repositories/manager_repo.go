package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

type ManagerRepo interface {
	// Ensure finds the manager by Telegram id, creating the record on first
	// contact.
	Ensure(telegramID int64, name string) (*models.Manager, error)
	GetByID(id uint) (*models.Manager, error)
}

type managerRepo struct {
	db *gorm.DB
}

func NewManagerRepo(db *gorm.DB) ManagerRepo {
	return &managerRepo{db: db}
}

func (r *managerRepo) Ensure(telegramID int64, name string) (*models.Manager, error) {
	manager := models.Manager{TelegramID: telegramID, Name: name, Role: "manager"}
	err := r.db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "telegram_id"}}, DoNothing: true}).
		Create(&manager).Error
	if err != nil {
		return nil, err
	}
	// OnConflict DoNothing leaves the struct without an id on replays.
	if manager.ID == 0 {
		if err := r.db.Where("telegram_id = ?", telegramID).First(&manager).Error; err != nil {
			return nil, translate(err)
		}
	}
	return &manager, nil
}

func (r *managerRepo) GetByID(id uint) (*models.Manager, error) {
	var manager models.Manager
	if err := r.db.First(&manager, id).Error; err != nil {
		return nil, translate(err)
	}
	return &manager, nil
}
