package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/invoice"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

// DealService owns every write path that touches deals. Multi-row writes
// run inside a transaction so a failed step leaves nothing half-applied.
type DealService struct {
	db *gorm.DB
}

func NewDealService(db *gorm.DB) *DealService {
	return &DealService{db: db}
}

// EnsureManager registers the Telegram account on first contact and returns
// the manager row on every call.
func (s *DealService) EnsureManager(telegramID int64, name string) (*models.Manager, error) {
	return repositories.NewManagerRepo(s.db).Ensure(telegramID, name)
}

// ClientByPhone looks up a client by normalized phone number.
func (s *DealService) ClientByPhone(phoneNumber string) (*models.Client, error) {
	return repositories.NewClientRepo(s.db).GetByPhone(phoneNumber)
}

// CreateClientWithDeal finds or creates the client and opens a new deal for
// it in one transaction.
func (s *DealService) CreateClientWithDeal(managerID uint, phoneNumber, name, city string) (*models.Deal, error) {
	var created *models.Deal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		client, err := repositories.NewClientRepo(tx).FindOrCreate(phoneNumber, name, city)
		if err != nil {
			return err
		}

		deal := &models.Deal{
			ClientID:  client.ID,
			ManagerID: managerID,
			Status:    status.New,
		}
		if err := repositories.NewDealRepo(tx).Create(deal); err != nil {
			return err
		}

		deal.Client = *client
		created = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindDealBySuffix resolves the manager's most recent deal whose client
// phone ends with the four-digit suffix.
func (s *DealService) FindDealBySuffix(managerID uint, suffix string) (*models.Deal, error) {
	return repositories.NewDealRepo(s.db).LatestBySuffix(managerID, suffix)
}

// LatestDealForClient returns the manager's newest deal for the client.
func (s *DealService) LatestDealForClient(managerID uint, client *models.Client) (*models.Deal, error) {
	return repositories.NewDealRepo(s.db).LatestBySuffix(managerID, client.PhoneSuffix)
}

// AttachInvoice stores the parsed invoice with its line items, sets the
// deal amount and moves the deal to "invoice sent". The status transition
// is validated before anything is written.
func (s *DealService) AttachInvoice(dealID, managerID uint, data *invoice.Data, filePath string) (*models.Deal, error) {
	var updated *models.Deal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		deals := repositories.NewDealRepo(tx)

		deal, err := deals.GetForManager(dealID, managerID)
		if err != nil {
			return err
		}
		if err := status.ValidateTransition(deal.Status, status.InvoiceSent); err != nil {
			return err
		}

		inv := &models.Invoice{
			DealID:      deal.ID,
			FilePath:    filePath,
			TotalAmount: data.TotalAmount,
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		for _, item := range data.LineItems {
			row := &models.InvoiceItem{
				InvoiceID:       inv.ID,
				LineNumber:      item.LineNumber,
				ItemDescription: item.Description,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}

		deal.Amount = decimal.NullDecimal{Decimal: data.TotalAmount, Valid: true}
		deal.Status = status.InvoiceSent
		if err := deals.Save(deal); err != nil {
			return err
		}

		updated = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LogInteraction records one manager-client touchpoint and refreshes the
// deal's last interaction timestamp.
func (s *DealService) LogInteraction(dealID, managerID uint, interactionType, summary, advice string) (*models.Interaction, error) {
	var created *models.Interaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		deals := repositories.NewDealRepo(tx)

		deal, err := deals.GetForManager(dealID, managerID)
		if err != nil {
			return err
		}

		row := &models.Interaction{
			DealID:         deal.ID,
			Type:           interactionType,
			ManagerSummary: summary,
			AIAdvice:       advice,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		now := time.Now()
		deal.LastInteractionAt = &now
		if err := deals.Save(deal); err != nil {
			return err
		}

		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ChangeStatus moves the deal to target after validating the transition.
func (s *DealService) ChangeStatus(dealID, managerID uint, target status.Status) (*models.Deal, error) {
	var updated *models.Deal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		deals := repositories.NewDealRepo(tx)

		deal, err := deals.GetForManager(dealID, managerID)
		if err != nil {
			return err
		}
		if err := status.ValidateTransition(deal.Status, target); err != nil {
			return err
		}

		deal.Status = target
		if err := deals.Save(deal); err != nil {
			return err
		}

		updated = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateReminder schedules a reminder for a deal the manager owns.
func (s *DealService) CreateReminder(dealID, managerID uint, at time.Time) (*models.Reminder, error) {
	if _, err := repositories.NewDealRepo(s.db).GetForManager(dealID, managerID); err != nil {
		return nil, err
	}

	reminder := &models.Reminder{DealID: dealID, RemindAt: at}
	if err := repositories.NewReminderRepo(s.db).Create(reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

// ListDeals returns the manager's deals, newest first.
func (s *DealService) ListDeals(managerID uint) ([]models.Deal, error) {
	return repositories.NewDealRepo(s.db).ListByManager(managerID)
}

// StatusSummary aggregates all deals across managers per status.
func (s *DealService) StatusSummary() ([]repositories.StatusCount, error) {
	return repositories.NewDealRepo(s.db).StatusSummary()
}
