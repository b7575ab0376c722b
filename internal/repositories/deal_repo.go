package repositories

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

// StatusCount is one row of the supervisor overview.
type StatusCount struct {
	Status status.Status
	Count  int64
	Total  decimal.Decimal
}

type DealRepo interface {
	Create(deal *models.Deal) error
	// GetForManager loads a deal only when it is owned by the manager;
	// anything else is ErrNotFound.
	GetForManager(id, managerID uint) (*models.Deal, error)
	// LatestBySuffix resolves the most recent deal whose client phone ends
	// with the suffix, scoped to the manager.
	LatestBySuffix(managerID uint, suffix string) (*models.Deal, error)
	ListByManager(managerID uint) ([]models.Deal, error)
	Save(deal *models.Deal) error
	// StatusSummary aggregates deal counts and amount sums per status.
	StatusSummary() ([]StatusCount, error)
	// Stale returns non-terminal deals whose last interaction predates the
	// cutoff, with managers preloaded for notification.
	Stale(cutoff time.Time) ([]models.Deal, error)
}

type dealRepo struct {
	db *gorm.DB
}

func NewDealRepo(db *gorm.DB) DealRepo {
	return &dealRepo{db: db}
}

func (r *dealRepo) Create(deal *models.Deal) error {
	return r.db.Create(deal).Error
}

func (r *dealRepo) GetForManager(id, managerID uint) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.Preload("Client").
		Where("id = ? AND manager_id = ?", id, managerID).
		First(&deal).Error
	if err != nil {
		return nil, translate(err)
	}
	return &deal, nil
}

func (r *dealRepo) LatestBySuffix(managerID uint, suffix string) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.Preload("Client").
		Joins("JOIN clients ON clients.id = deals.client_id").
		Where("deals.manager_id = ? AND clients.phone_suffix = ?", managerID, suffix).
		Order("deals.created_at DESC").
		First(&deal).Error
	if err != nil {
		return nil, translate(err)
	}
	return &deal, nil
}

func (r *dealRepo) ListByManager(managerID uint) ([]models.Deal, error) {
	var deals []models.Deal
	err := r.db.Preload("Client").
		Where("manager_id = ?", managerID).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

func (r *dealRepo) Save(deal *models.Deal) error {
	return r.db.Save(deal).Error
}

func (r *dealRepo) StatusSummary() ([]StatusCount, error) {
	var rows []struct {
		Status string
		Count  int64
		Total  decimal.Decimal
	}
	err := r.db.Model(&models.Deal{}).
		Select("status, COUNT(id) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]StatusCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusCount{Status: status.Status(row.Status), Count: row.Count, Total: row.Total})
	}
	return out, nil
}

func (r *dealRepo) Stale(cutoff time.Time) ([]models.Deal, error) {
	terminal := []status.Status{status.Paid, status.Cancelled, status.LongTerm}

	var deals []models.Deal
	err := r.db.Preload("Client").Preload("Manager").
		Where("last_interaction_at IS NOT NULL AND last_interaction_at < ?", cutoff).
		Where("status NOT IN ?", terminal).
		Find(&deals).Error
	return deals, err
}
