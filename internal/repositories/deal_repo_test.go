package repositories

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
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

func seedManager(t *testing.T, db *gorm.DB, telegramID int64) *models.Manager {
	t.Helper()
	m := &models.Manager{TelegramID: telegramID, Name: "Менеджер"}
	require.NoError(t, db.Create(m).Error)
	return m
}

func seedClient(t *testing.T, db *gorm.DB, phoneNumber string) *models.Client {
	t.Helper()
	c := &models.Client{
		PhoneNumber: phoneNumber,
		PhoneSuffix: phoneNumber[len(phoneNumber)-4:],
		Name:        "Клиент",
		City:        "Алматы",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedDeal(t *testing.T, db *gorm.DB, managerID, clientID uint, st status.Status, createdAt time.Time) *models.Deal {
	t.Helper()
	d := &models.Deal{ManagerID: managerID, ClientID: clientID, Status: st, CreatedAt: createdAt}
	require.NoError(t, db.Create(d).Error)
	return d
}

func TestLatestBySuffixScopedToOwningManager(t *testing.T) {
	db := testDB(t)
	owner := seedManager(t, db, 100)
	other := seedManager(t, db, 200)
	client := seedClient(t, db, "+77771234567")
	deal := seedDeal(t, db, owner.ID, client.ID, status.New, time.Now())

	repo := NewDealRepo(db)

	found, err := repo.LatestBySuffix(owner.ID, "4567")
	require.NoError(t, err)
	assert.Equal(t, deal.ID, found.ID)
	assert.Equal(t, "+77771234567", found.Client.PhoneNumber)

	_, err = repo.LatestBySuffix(other.ID, "4567")
	assert.ErrorIs(t, err, ErrNotFound, "another manager must not see the deal")
}

func TestLatestBySuffixPrefersNewestDeal(t *testing.T) {
	db := testDB(t)
	mgr := seedManager(t, db, 100)
	client := seedClient(t, db, "+77771234567")
	seedDeal(t, db, mgr.ID, client.ID, status.Cancelled, time.Now().Add(-48*time.Hour))
	newest := seedDeal(t, db, mgr.ID, client.ID, status.New, time.Now())

	found, err := NewDealRepo(db).LatestBySuffix(mgr.ID, "4567")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, found.ID)
}

func TestGetForManagerRejectsForeignDeal(t *testing.T) {
	db := testDB(t)
	owner := seedManager(t, db, 100)
	other := seedManager(t, db, 200)
	client := seedClient(t, db, "+77771234567")
	deal := seedDeal(t, db, owner.ID, client.ID, status.New, time.Now())

	repo := NewDealRepo(db)

	found, err := repo.GetForManager(deal.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, found.ID)

	_, err = repo.GetForManager(deal.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
