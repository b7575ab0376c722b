package sweep

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkenzhebek/tgcrm-bot/internal/models"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

// staleAfter is how long a deal may sit without interaction before the
// follow-up sweep nudges its manager.
const staleAfter = 12 * time.Hour

// Notifier delivers sweep notifications to a manager's chat.
type Notifier interface {
	SendMessage(chatID int64, text string) (int, error)
}

// Sweeper executes the periodic jobs. A failure on one row is logged and
// skipped so the rest of the sweep still runs.
type Sweeper struct {
	reminders repositories.ReminderRepo
	deals     repositories.DealRepo
	notify    Notifier

	withinHours func(time.Time) bool
	now         func() time.Time
}

func NewSweeper(reminders repositories.ReminderRepo, deals repositories.DealRepo, notify Notifier, withinHours func(time.Time) bool) *Sweeper {
	return &Sweeper{
		reminders:   reminders,
		deals:       deals,
		notify:      notify,
		withinHours: withinHours,
		now:         time.Now,
	}
}

// SendDueReminders delivers every due unsent reminder and flips is_sent on
// successful delivery only, so a failed send is retried next sweep.
func (s *Sweeper) SendDueReminders() {
	due, err := s.reminders.DueUnsent(s.now())
	if err != nil {
		log.Error().Err(err).Msg("reminder sweep query failed")
		return
	}

	for _, reminder := range due {
		if err := s.deliverReminder(reminder); err != nil {
			log.Warn().Err(err).Uint("reminder_id", reminder.ID).Msg("reminder delivery failed")
			continue
		}
		if err := s.reminders.MarkSent(reminder.ID); err != nil {
			log.Error().Err(err).Uint("reminder_id", reminder.ID).Msg("reminder flag update failed")
		}
	}
}

func (s *Sweeper) deliverReminder(reminder models.Reminder) error {
	manager := reminder.Deal.Manager
	if manager.TelegramID == 0 {
		return fmt.Errorf("reminder %d: deal %d has no reachable manager", reminder.ID, reminder.DealID)
	}

	text := fmt.Sprintf("⏰ Напоминание по сделке #%d: клиент %s (%s).",
		reminder.DealID, reminder.Deal.Client.Name, reminder.Deal.Client.PhoneNumber)
	_, err := s.notify.SendMessage(manager.TelegramID, text)
	return err
}

// ProactiveFollowUp nudges managers about deals without interaction for
// over staleAfter. It stays silent outside working hours.
func (s *Sweeper) ProactiveFollowUp() {
	now := s.now()
	if !s.withinHours(now) {
		return
	}

	stale, err := s.deals.Stale(now.Add(-staleAfter))
	if err != nil {
		log.Error().Err(err).Msg("follow-up sweep query failed")
		return
	}

	for _, deal := range stale {
		if deal.Manager.TelegramID == 0 {
			log.Warn().Uint("deal_id", deal.ID).Msg("stale deal has no reachable manager")
			continue
		}
		text := fmt.Sprintf("📌 По сделке #%d (клиент %s) не было взаимодействий более 12 часов. Стоит связаться с клиентом.",
			deal.ID, deal.Client.Name)
		if _, err := s.notify.SendMessage(deal.Manager.TelegramID, text); err != nil {
			log.Warn().Err(err).Uint("deal_id", deal.ID).Msg("follow-up delivery failed")
		}
	}
}
