package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/invoice"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Manager{}, &models.Client{}, &models.Deal{}, &models.Interaction{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Reminder{},
		&models.BotSetting{}, &models.ChatSession{},
	))
	return db
}

func seedDealWithStatus(t *testing.T, db *gorm.DB, st status.Status) (*models.Manager, *models.Deal) {
	t.Helper()
	mgr := &models.Manager{TelegramID: 100, Name: "Дана"}
	require.NoError(t, db.Create(mgr).Error)
	client := &models.Client{PhoneNumber: "+77771234567", PhoneSuffix: "4567", Name: "Айгерим"}
	require.NoError(t, db.Create(client).Error)
	deal := &models.Deal{ManagerID: mgr.ID, ClientID: client.ID, Status: st}
	require.NoError(t, db.Create(deal).Error)
	return mgr, deal
}

func TestAttachInvoicePersistsAmountAndItems(t *testing.T) {
	db := openServiceDB(t)
	mgr, deal := seedDealWithStatus(t, db, status.New)
	svc := NewDealService(db)

	data := &invoice.Data{
		TotalAmount: decimal.NewFromFloat(1000.0),
		LineItems: []invoice.LineItem{
			{LineNumber: 1, Description: "Насосная станция"},
			{LineNumber: 2, Description: "Монтаж"},
		},
	}

	updated, err := svc.AttachInvoice(deal.ID, mgr.ID, data, "invoices/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, status.InvoiceSent, updated.Status)
	require.True(t, updated.Amount.Valid)
	assert.True(t, updated.Amount.Decimal.Equal(decimal.NewFromFloat(1000.0)))

	var stored models.Deal
	require.NoError(t, db.First(&stored, deal.ID).Error)
	assert.Equal(t, status.InvoiceSent, stored.Status)
	require.True(t, stored.Amount.Valid)
	assert.True(t, stored.Amount.Decimal.Equal(decimal.NewFromFloat(1000.0)))

	var inv models.Invoice
	require.NoError(t, db.Where("deal_id = ?", deal.ID).First(&inv).Error)
	assert.Equal(t, "invoices/a.pdf", inv.FilePath)

	var items []models.InvoiceItem
	require.NoError(t, db.Where("invoice_id = ?", inv.ID).Order("line_number").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].LineNumber)
	assert.Equal(t, "Насосная станция", items[0].ItemDescription)
	assert.Equal(t, 2, items[1].LineNumber)
	assert.Equal(t, "Монтаж", items[1].ItemDescription)
}

func TestAttachInvoiceValidatesTransitionBeforeWriting(t *testing.T) {
	db := openServiceDB(t)
	mgr, deal := seedDealWithStatus(t, db, status.Paid)
	svc := NewDealService(db)

	data := &invoice.Data{TotalAmount: decimal.NewFromFloat(1000.0)}
	_, err := svc.AttachInvoice(deal.ID, mgr.ID, data, "invoices/a.pdf")
	assert.ErrorIs(t, err, status.ErrInvalidTransition)

	var invoices int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, invoices, "rejected transition must leave no invoice rows")

	var stored models.Deal
	require.NoError(t, db.First(&stored, deal.ID).Error)
	assert.Equal(t, status.Paid, stored.Status)
	assert.False(t, stored.Amount.Valid)
}

func TestAttachInvoiceRejectsForeignDeal(t *testing.T) {
	db := openServiceDB(t)
	_, deal := seedDealWithStatus(t, db, status.New)
	other := &models.Manager{TelegramID: 200, Name: "Чужой"}
	require.NoError(t, db.Create(other).Error)
	svc := NewDealService(db)

	data := &invoice.Data{TotalAmount: decimal.NewFromFloat(1000.0)}
	_, err := svc.AttachInvoice(deal.ID, other.ID, data, "invoices/a.pdf")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	var invoices int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, invoices)
}
