package sweep

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

type fakeReminderRepo struct {
	due    []models.Reminder
	dueErr error
	sent   []uint
}

func (f *fakeReminderRepo) Create(*models.Reminder) error { return nil }

func (f *fakeReminderRepo) DueUnsent(time.Time) ([]models.Reminder, error) {
	return f.due, f.dueErr
}

func (f *fakeReminderRepo) MarkSent(id uint) error {
	f.sent = append(f.sent, id)
	return nil
}

type fakeDealRepo struct {
	stale []models.Deal
}

func (f *fakeDealRepo) Create(*models.Deal) error                        { return nil }
func (f *fakeDealRepo) GetForManager(uint, uint) (*models.Deal, error)   { return nil, nil }
func (f *fakeDealRepo) LatestBySuffix(uint, string) (*models.Deal, error) { return nil, nil }
func (f *fakeDealRepo) ListByManager(uint) ([]models.Deal, error)        { return nil, nil }
func (f *fakeDealRepo) Save(*models.Deal) error                          { return nil }

func (f *fakeDealRepo) StatusSummary() ([]repositories.StatusCount, error) { return nil, nil }

func (f *fakeDealRepo) Stale(time.Time) ([]models.Deal, error) { return f.stale, nil }

type fakeNotifier struct {
	sent    []int64
	failFor int64
}

func (f *fakeNotifier) SendMessage(chatID int64, text string) (int, error) {
	if chatID == f.failFor {
		return 0, errors.New("blocked")
	}
	f.sent = append(f.sent, chatID)
	return 1, nil
}

func reminderFor(id uint, managerTelegramID int64) models.Reminder {
	return models.Reminder{
		ID:     id,
		DealID: id,
		Deal: models.Deal{
			ID:      id,
			Manager: models.Manager{ID: 1, TelegramID: managerTelegramID},
			Client:  models.Client{Name: "Айгерим", PhoneNumber: "+77771234567"},
		},
	}
}

func TestSendDueRemindersMarksDeliveredOnly(t *testing.T) {
	reminders := &fakeReminderRepo{due: []models.Reminder{
		reminderFor(1, 100),
		reminderFor(2, 200),
		reminderFor(3, 300),
	}}
	notify := &fakeNotifier{failFor: 200}

	s := NewSweeper(reminders, &fakeDealRepo{}, notify, func(time.Time) bool { return true })
	s.SendDueReminders()

	assert.Equal(t, []int64{100, 300}, notify.sent)
	assert.Equal(t, []uint{1, 3}, reminders.sent, "failed delivery must stay unsent for retry")
}

func TestSendDueRemindersSkipsUnreachableManager(t *testing.T) {
	reminders := &fakeReminderRepo{due: []models.Reminder{
		reminderFor(1, 0),
		reminderFor(2, 200),
	}}
	notify := &fakeNotifier{}

	s := NewSweeper(reminders, &fakeDealRepo{}, notify, func(time.Time) bool { return true })
	s.SendDueReminders()

	require.Equal(t, []int64{200}, notify.sent)
	assert.Equal(t, []uint{2}, reminders.sent)
}

func TestProactiveFollowUpRespectsWorkingHours(t *testing.T) {
	deals := &fakeDealRepo{stale: []models.Deal{{
		ID:      7,
		Manager: models.Manager{TelegramID: 500},
		Client:  models.Client{Name: "Бауыржан"},
	}}}
	notify := &fakeNotifier{}

	s := NewSweeper(&fakeReminderRepo{}, deals, notify, func(time.Time) bool { return false })
	s.ProactiveFollowUp()
	assert.Empty(t, notify.sent)

	s = NewSweeper(&fakeReminderRepo{}, deals, notify, func(time.Time) bool { return true })
	s.ProactiveFollowUp()
	assert.Equal(t, []int64{500}, notify.sent)
}
