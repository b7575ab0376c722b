package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

type SessionRepo interface {
	Save(snapshot *models.ChatSession) error
	// Load returns ErrNotFound when the chat has no persisted snapshot.
	Load(chatID int64) (*models.ChatSession, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepo {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Save(snapshot *models.ChatSession) error {
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "active_deal_id", "scratch", "history", "updated_at"}),
		}).
		Create(snapshot).Error
}

func (r *sessionRepo) Load(chatID int64) (*models.ChatSession, error) {
	var snapshot models.ChatSession
	if err := r.db.Where("chat_id = ?", chatID).First(&snapshot).Error; err != nil {
		return nil, translate(err)
	}
	return &snapshot, nil
}
