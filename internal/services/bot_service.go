package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/intent"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/invoice"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/llm"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/phone"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/session"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
	"github.com/dkenzhebek/tgcrm-bot/internal/core/telegram"
	"github.com/dkenzhebek/tgcrm-bot/internal/models"
	"github.com/dkenzhebek/tgcrm-bot/internal/repositories"
)

// DealOps is the slice of DealService the conversation driver needs.
type DealOps interface {
	EnsureManager(telegramID int64, name string) (*models.Manager, error)
	ClientByPhone(phoneNumber string) (*models.Client, error)
	CreateClientWithDeal(managerID uint, phoneNumber, name, city string) (*models.Deal, error)
	FindDealBySuffix(managerID uint, suffix string) (*models.Deal, error)
	LatestDealForClient(managerID uint, client *models.Client) (*models.Deal, error)
	AttachInvoice(dealID, managerID uint, data *invoice.Data, filePath string) (*models.Deal, error)
	LogInteraction(dealID, managerID uint, interactionType, summary, advice string) (*models.Interaction, error)
	ChangeStatus(dealID, managerID uint, target status.Status) (*models.Deal, error)
	CreateReminder(dealID, managerID uint, at time.Time) (*models.Reminder, error)
	ListDeals(managerID uint) ([]models.Deal, error)
	StatusSummary() ([]repositories.StatusCount, error)
}

// Auth contexts stored in session scratch while waiting for a password.
const (
	authSettings   = "settings"
	authSupervisor = "supervisor"
)

const (
	reminderLayout = "2006-01-02 15:04"
	adviceTimeout  = 20 * time.Second
)

const (
	msgGenericFailure = "⚠️ Что-то пошло не так. Попробуйте ещё раз."
	msgChooseDeal     = "Сначала выберите сделку: введите последние 4 цифры номера клиента."
	msgDealGone       = "Сделка не найдена. Повторите поиск клиента."
	msgAskPhone       = "📞 Введите номер телефона клиента:"
	msgBadPhone       = "Не похоже на номер. Формат: +7XXXXXXXXXX."
	msgAskName        = "Новый клиент. Как зовут клиента?"
	msgAskCity        = "Из какого города клиент?"
	msgAskDemand      = "Что интересует клиента?"
	msgAskSuffix      = "Введите последние 4 цифры номера клиента:"
	msgBadSuffix      = "Нужно ровно 4 цифры. Попробуйте ещё раз."
	msgAskPDF         = "Отправьте PDF-файл счёта."
	msgNotPDF         = "⚠️ Не найден PDF-файл. Отправьте счёт в формате PDF."
	msgDownloadFail   = "Не удалось загрузить файл. Попробуйте ещё раз."
	msgUnreadablePDF  = "Не удалось прочитать PDF. Попробуйте другой файл."
	msgAskInteraction = "Выберите тип взаимодействия:"
	msgAskOutcome     = "Опишите итог взаимодействия одним сообщением:"
	msgAskReminder    = "Когда напомнить?"
	msgAskManualTime  = "Укажите дату и время в формате ГГГГ-ММ-ДД ЧЧ:ММ, например 2026-09-01 15:30."
	msgBadTime        = "Не понял время. Формат: ГГГГ-ММ-ДД ЧЧ:ММ."
	msgAskPassword    = "🔐 Введите пароль:"
	msgWrongPassword  = "❌ Неверный пароль. Попробуйте снова."
	msgAskSetting     = "⚙️ Что изменить?"
	msgPickSetting    = "Выберите пункт настроек кнопкой."
	msgBadSetting     = "Некорректное значение. Проверьте формат и повторите."
	msgSettingSaved   = "✅ Сохранено."
	msgBadStatus      = "Неизвестный статус. Доступны: новый, отправлен счёт, ожидается оплата, оплачен, отменен, долгосрочный."
	msgBadTransition  = "Статус не обновлён: такой переход недопустим."
	msgNoDeals        = "У вас пока нет сделок."
	msgUnknownIntent  = "Я пока не понял запрос. Попробуйте сформулировать иначе или воспользуйтесь меню."
)

var exactFourRe = regexp.MustCompile(`^\d{4}$`)

// BotService drives the per-chat conversation state machine. One update is
// handled at a time per chat; the session lock serializes concurrent
// updates from the same chat.
type BotService struct {
	provider    telegram.Provider
	sessions    *session.Store
	sessionRepo repositories.SessionRepo
	deals       DealOps
	settings    *SettingsService
	advisor     llm.Advisor
	invoiceDir  string
	loc         *time.Location

	now     func() time.Time
	extract func(fileBytes []byte) (string, error)
}

func NewBotService(
	provider telegram.Provider,
	sessions *session.Store,
	sessionRepo repositories.SessionRepo,
	deals DealOps,
	settings *SettingsService,
	advisor llm.Advisor,
	invoiceDir string,
	loc *time.Location,
) *BotService {
	return &BotService{
		provider:    provider,
		sessions:    sessions,
		sessionRepo: sessionRepo,
		deals:       deals,
		settings:    settings,
		advisor:     advisor,
		invoiceDir:  invoiceDir,
		loc:         loc,
		now:         time.Now,
		extract:     invoice.ExtractText,
	}
}

// Serve consumes the update stream until it closes. Updates for distinct
// chats are handled concurrently; updates from one chat go through a
// dedicated lane so they are handled in arrival order.
func (b *BotService) Serve(updates <-chan telegram.Update) {
	var wg sync.WaitGroup
	lanes := map[int64]chan telegram.Update{}

	for u := range updates {
		lane, ok := lanes[u.ChatID]
		if !ok {
			lane = make(chan telegram.Update, 32)
			lanes[u.ChatID] = lane
			wg.Add(1)
			go func(ch <-chan telegram.Update) {
				defer wg.Done()
				for queued := range ch {
					b.HandleUpdate(queued)
				}
			}(lane)
		}
		lane <- u
	}

	for _, lane := range lanes {
		close(lane)
	}
	wg.Wait()
}

// HandleUpdate processes one inbound update. A panic in a handler is
// recovered into a generic failure message; the session keeps its state so
// the manager can retry the step.
func (b *BotService) HandleUpdate(u telegram.Update) {
	sess, created := b.sessions.Get(u.ChatID)
	sess.Lock()
	defer sess.Unlock()

	if created {
		b.hydrate(sess)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int64("chat_id", u.ChatID).Msg("update handler panicked")
			b.send(sess, msgGenericFailure)
		}
		b.snapshot(sess)
	}()

	b.dispatch(sess, u)
}

func (b *BotService) dispatch(sess *session.Session, u telegram.Update) {
	text := strings.TrimSpace(u.Text)

	if strings.HasPrefix(text, "/start") {
		b.handleStart(sess, u)
		return
	}

	switch sess.State {
	case session.StateIdle:
		b.handleIdle(sess, u, text)
	case session.StateEnteringClientPhone:
		b.handleClientPhone(sess, u, text)
	case session.StateEnteringNewClientName:
		b.handleNewClientName(sess, text)
	case session.StateEnteringNewClientCity:
		b.handleNewClientCity(sess, text)
	case session.StateEnteringNewClientNeeds:
		b.handleNewClientDemand(sess, u, text)
	case session.StateSelectingDeal:
		b.handleDealSelection(sess, u, text)
	case session.StateAwaitingPDF:
		b.handleInvoicePDF(sess, u)
	case session.StateChoosingInteraction:
		b.handleInteraction(sess, u, text)
	case session.StateEnteringReminderTime:
		b.handleReminderTime(sess, u, text)
	case session.StateSettingsAuth:
		b.handleSettingsAuth(sess, u, text)
	case session.StateSettingsMenu:
		b.handleSettingsMenu(sess, u, text)
	default:
		log.Warn().Str("state", string(sess.State)).Int64("chat_id", sess.ChatID).Msg("unknown session state, resetting")
		sess.Reset()
		b.sendMenu(sess, telegram.RenderMainMenu())
	}
}

// --- /start and idle routing ---

func (b *BotService) handleStart(sess *session.Session, u telegram.Update) {
	if _, err := b.deals.EnsureManager(u.UserID, u.DisplayName); err != nil {
		log.Error().Err(err).Int64("user_id", u.UserID).Msg("manager registration failed")
		b.send(sess, msgGenericFailure)
		return
	}

	b.purge(sess)
	sess.Reset()

	greeting := "👋 Здравствуйте! Я помощник по сделкам.\n\n" + telegram.RenderMainMenu()
	if tip := b.advice(llm.BuildGreetingTip()); tip != "" {
		greeting += "\n\n💡 " + tip
	}
	b.sendMenu(sess, greeting)
}

func (b *BotService) handleIdle(sess *session.Session, u telegram.Update, text string) {
	switch text {
	case telegram.BtnSearchClient:
		b.transition(sess, session.StateEnteringClientPhone)
		b.send(sess, msgAskPhone)
		return
	case telegram.BtnSearchBySuffix:
		b.transition(sess, session.StateSelectingDeal)
		b.send(sess, msgAskSuffix)
		return
	case telegram.BtnAttachInvoice:
		if !b.requireDeal(sess) {
			return
		}
		b.transition(sess, session.StateAwaitingPDF)
		b.send(sess, msgAskPDF)
		return
	case telegram.BtnInteraction:
		if !b.requireDeal(sess) {
			return
		}
		b.transition(sess, session.StateChoosingInteraction)
		b.sendKeyboard(sess, msgAskInteraction, telegram.InteractionKeyboard())
		return
	case telegram.BtnReminder:
		if !b.requireDeal(sess) {
			return
		}
		b.transition(sess, session.StateEnteringReminderTime)
		b.sendKeyboard(sess, msgAskReminder, telegram.ReminderPresetKeyboard())
		return
	case telegram.BtnSettings:
		sess.Scratch[session.KeyAuthContext] = authSettings
		b.transition(sess, session.StateSettingsAuth)
		b.send(sess, msgAskPassword)
		return
	case telegram.BtnAllDeals:
		sess.Scratch[session.KeyAuthContext] = authSupervisor
		b.transition(sess, session.StateSettingsAuth)
		b.send(sess, msgAskPassword)
		return
	}

	res := intent.Parse(text)
	switch res.Intent {
	case intent.MainMenu:
		sess.ActiveDealID = 0
		b.purge(sess)
		b.sendMenu(sess, telegram.RenderMainMenu())
	case intent.CreateClient:
		b.lookupClient(sess, u, res.Payload[intent.PayloadPhone])
	case intent.DealSearch:
		b.selectDealBySuffix(sess, u, res.Payload[intent.PayloadSuffix])
	case intent.Interaction:
		b.logFreeTextInteraction(sess, u, res.Payload[intent.PayloadSummary])
	case intent.Reminder:
		if !b.requireDeal(sess) {
			return
		}
		b.transition(sess, session.StateEnteringReminderTime)
		b.sendKeyboard(sess, msgAskReminder, telegram.ReminderPresetKeyboard())
	case intent.StatusChange:
		b.applyStatusChange(sess, u, res.Payload[intent.PayloadStatus], res.Payload[intent.PayloadIdentifier])
	case intent.InvoiceRequest:
		if !b.requireDeal(sess) {
			return
		}
		b.transition(sess, session.StateAwaitingPDF)
		b.send(sess, msgAskPDF)
	case intent.SupervisorReport:
		sess.Scratch[session.KeyAuthContext] = authSupervisor
		b.transition(sess, session.StateSettingsAuth)
		b.send(sess, msgAskPassword)
	case intent.Settings:
		sess.Scratch[session.KeyAuthContext] = authSettings
		b.transition(sess, session.StateSettingsAuth)
		b.send(sess, msgAskPassword)
	case intent.DealSummary:
		b.sendDealList(sess, u)
	default:
		if _, err := b.deals.EnsureManager(u.UserID, u.DisplayName); err != nil {
			log.Error().Err(err).Int64("user_id", u.UserID).Msg("manager registration failed")
		}
		b.sendMenu(sess, msgUnknownIntent+"\n\n"+telegram.RenderMainMenu())
	}
}

// --- client lookup and creation ---

func (b *BotService) handleClientPhone(sess *session.Session, u telegram.Update, text string) {
	b.lookupClient(sess, u, text)
}

// lookupClient routes a phone number: unknown numbers start the new-client
// flow, known ones activate the client's latest deal or open a fresh one.
func (b *BotService) lookupClient(sess *session.Session, u telegram.Update, raw string) {
	normalized, err := phone.Normalize(raw)
	if err != nil {
		b.send(sess, msgBadPhone)
		return
	}

	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	client, err := b.deals.ClientByPhone(normalized)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		sess.Scratch[session.KeyNewClientPhone] = normalized
		b.transition(sess, session.StateEnteringNewClientName)
		b.send(sess, msgAskName)
	case err != nil:
		b.failSafe(sess, err)
	default:
		deal, err := b.deals.LatestDealForClient(mgr.ID, client)
		if errors.Is(err, repositories.ErrNotFound) {
			deal, err = b.deals.CreateClientWithDeal(mgr.ID, client.PhoneNumber, client.Name, client.City)
		}
		if err != nil {
			b.failSafe(sess, err)
			return
		}
		sess.ActiveDealID = deal.ID
		b.transition(sess, session.StateIdle)
		b.send(sess, dealSummary(deal)+"\n\n"+telegram.RenderDealContext())
	}
}

func (b *BotService) handleNewClientName(sess *session.Session, text string) {
	if text == "" {
		b.send(sess, msgAskName)
		return
	}
	sess.Scratch[session.KeyNewClientName] = text
	b.transition(sess, session.StateEnteringNewClientCity)
	b.send(sess, msgAskCity)
}

func (b *BotService) handleNewClientCity(sess *session.Session, text string) {
	if text == "" {
		b.send(sess, msgAskCity)
		return
	}
	sess.Scratch[session.KeyNewClientCity] = text
	b.transition(sess, session.StateEnteringNewClientNeeds)
	b.send(sess, msgAskDemand)
}

func (b *BotService) handleNewClientDemand(sess *session.Session, u telegram.Update, text string) {
	if text == "" {
		b.send(sess, msgAskDemand)
		return
	}

	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	name := sess.Scratch[session.KeyNewClientName]
	city := sess.Scratch[session.KeyNewClientCity]
	deal, err := b.deals.CreateClientWithDeal(mgr.ID, sess.Scratch[session.KeyNewClientPhone], name, city)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	sess.ClearScratch()
	sess.ActiveDealID = deal.ID
	b.transition(sess, session.StateIdle)

	reply := "✅ Клиент и сделка созданы.\n\n" + dealSummary(deal)
	if tip := b.advice(llm.BuildClientSummary(name, city, text)); tip != "" {
		reply += "\n\n💡 " + tip
	}
	b.send(sess, reply+"\n\n"+telegram.RenderDealContext())
}

// --- deal selection ---

func (b *BotService) handleDealSelection(sess *session.Session, u telegram.Update, text string) {
	if !exactFourRe.MatchString(text) {
		b.send(sess, msgBadSuffix)
		return
	}
	b.selectDealBySuffix(sess, u, text)
}

func (b *BotService) selectDealBySuffix(sess *session.Session, u telegram.Update, suffix string) {
	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	deal, err := b.deals.FindDealBySuffix(mgr.ID, suffix)
	if errors.Is(err, repositories.ErrNotFound) {
		sess.ActiveDealID = 0
		b.transition(sess, session.StateIdle)
		b.send(sess, msgDealGone)
		return
	}
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	sess.ActiveDealID = deal.ID
	b.transition(sess, session.StateIdle)
	b.send(sess, dealSummary(deal)+"\n\n"+telegram.RenderDealContext())
}

// --- invoices ---

func (b *BotService) handleInvoicePDF(sess *session.Session, u telegram.Update) {
	if sess.ActiveDealID == 0 {
		b.transition(sess, session.StateIdle)
		b.send(sess, msgChooseDeal)
		return
	}

	doc := u.Document
	if doc == nil || !isPDF(doc) {
		b.send(sess, msgNotPDF)
		return
	}

	fileBytes, err := b.provider.DownloadDocument(doc.FileID)
	if err != nil {
		log.Warn().Err(err).Str("file_id", doc.FileID).Msg("invoice download failed")
		b.send(sess, msgDownloadFail)
		return
	}

	text, err := b.extract(fileBytes)
	if err != nil {
		log.Warn().Err(err).Msg("invoice text extraction failed")
		b.send(sess, msgUnreadablePDF)
		return
	}
	data := invoice.Parse(text)

	filePath := filepath.Join(b.invoiceDir, uuid.New().String()+".pdf")
	if err := os.WriteFile(filePath, fileBytes, 0o644); err != nil {
		log.Error().Err(err).Str("path", filePath).Msg("invoice file write failed")
		b.send(sess, msgGenericFailure)
		return
	}

	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	deal, err := b.deals.AttachInvoice(sess.ActiveDealID, mgr.ID, data, filePath)
	switch {
	case errors.Is(err, status.ErrInvalidTransition):
		b.transition(sess, session.StateIdle)
		b.send(sess, msgBadTransition)
		return
	case errors.Is(err, repositories.ErrNotFound):
		sess.ActiveDealID = 0
		b.transition(sess, session.StateIdle)
		b.send(sess, msgDealGone)
		return
	case err != nil:
		b.failSafe(sess, err)
		return
	}

	b.transition(sess, session.StateIdle)
	reply := fmt.Sprintf("✅ Счёт загружен. Сумма сделки: %s.\nСтатус: %s.", data.TotalAmount.StringFixed(2), deal.Status.Label())
	if tip := b.advice(llm.BuildInvoiceSummary(text)); tip != "" {
		reply += "\n\n💡 " + tip
	}
	b.send(sess, reply)
}

func isPDF(doc *telegram.Document) bool {
	return doc.MimeType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(doc.FileName), ".pdf")
}

// --- interactions ---

func (b *BotService) handleInteraction(sess *session.Session, u telegram.Update, text string) {
	if u.Callback != "" {
		kind, ok := strings.CutPrefix(u.Callback, "interaction:")
		if !ok {
			b.sendKeyboard(sess, msgAskInteraction, telegram.InteractionKeyboard())
			return
		}
		sess.Scratch[session.KeyInteractionType] = kind
		b.send(sess, msgAskOutcome)
		return
	}

	if text == "" {
		b.send(sess, msgAskOutcome)
		return
	}

	kind := sess.Scratch[session.KeyInteractionType]
	if kind == "" {
		kind = intent.ClassifyInteraction(text)
	}
	delete(sess.Scratch, session.KeyInteractionType)

	b.recordInteraction(sess, u, kind, text)
}

func (b *BotService) logFreeTextInteraction(sess *session.Session, u telegram.Update, summary string) {
	if !b.requireDeal(sess) {
		return
	}
	b.recordInteraction(sess, u, intent.ClassifyInteraction(summary), summary)
}

func (b *BotService) recordInteraction(sess *session.Session, u telegram.Update, kind, summary string) {
	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	advice := b.advice(llm.BuildDealAdvice(summary, ""))
	_, err = b.deals.LogInteraction(sess.ActiveDealID, mgr.ID, kind, summary, advice)
	if errors.Is(err, repositories.ErrNotFound) {
		sess.ActiveDealID = 0
		b.transition(sess, session.StateIdle)
		b.send(sess, msgDealGone)
		return
	}
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	b.transition(sess, session.StateIdle)
	reply := "📝 Взаимодействие сохранено."
	if advice != "" {
		reply += "\n\n💡 " + advice
	}
	b.send(sess, reply)
}

// --- reminders ---

func (b *BotService) handleReminderTime(sess *session.Session, u telegram.Update, text string) {
	var at time.Time
	var label string

	switch u.Callback {
	case telegram.CallbackReminderHour:
		at = b.now().In(b.loc).Add(time.Hour)
		label = "через 1 час"
	case telegram.CallbackReminderMorning:
		tomorrow := b.now().In(b.loc).AddDate(0, 0, 1)
		at = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, b.loc)
		label = "завтра утром"
	case telegram.CallbackReminderManual:
		b.send(sess, msgAskManualTime)
		return
	default:
		parsed, err := time.ParseInLocation(reminderLayout, text, b.loc)
		if err != nil {
			b.send(sess, msgBadTime)
			return
		}
		at = parsed
		label = text
	}

	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	if _, err := b.deals.CreateReminder(sess.ActiveDealID, mgr.ID, at); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sess.ActiveDealID = 0
			b.transition(sess, session.StateIdle)
			b.send(sess, msgDealGone)
			return
		}
		b.failSafe(sess, err)
		return
	}

	b.transition(sess, session.StateIdle)
	reply := fmt.Sprintf("⏰ Напоминание создано: %s.", at.Format(reminderLayout))
	if tip := b.advice(llm.BuildReminderTip(label)); tip != "" {
		reply += "\n\n💡 " + tip
	}
	b.send(sess, reply)
}

// --- statuses ---

// applyStatusChange optionally resolves the deal from a trailing
// four-digit identifier mentioned in the command, then validates and
// applies the transition.
func (b *BotService) applyStatusChange(sess *session.Session, u telegram.Update, statusText, identifier string) {
	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	if sess.ActiveDealID == 0 && len(identifier) >= 4 {
		deal, err := b.deals.FindDealBySuffix(mgr.ID, identifier[len(identifier)-4:])
		switch {
		case err == nil:
			sess.ActiveDealID = deal.ID
		case !errors.Is(err, repositories.ErrNotFound):
			b.failSafe(sess, err)
			return
		}
	}
	if sess.ActiveDealID == 0 {
		b.send(sess, msgChooseDeal)
		return
	}

	target, err := status.Normalize(statusText)
	if err != nil {
		b.send(sess, msgBadStatus)
		return
	}

	deal, err := b.deals.ChangeStatus(sess.ActiveDealID, mgr.ID, target)
	switch {
	case errors.Is(err, status.ErrInvalidTransition):
		b.send(sess, msgBadTransition)
		return
	case errors.Is(err, repositories.ErrNotFound):
		sess.ActiveDealID = 0
		b.send(sess, msgDealGone)
		return
	case err != nil:
		b.failSafe(sess, err)
		return
	}

	reply := fmt.Sprintf("✅ Статус обновлён: %s.", deal.Status.Label())
	if tip := b.advice(llm.BuildStatusTip(deal.Status.Label(), dealSummary(deal))); tip != "" {
		reply += "\n\n💡 " + tip
	}
	b.send(sess, reply)
}

// --- deal listing and supervisor overview ---

func (b *BotService) sendDealList(sess *session.Session, u telegram.Update) {
	mgr, err := b.deals.EnsureManager(u.UserID, u.DisplayName)
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	deals, err := b.deals.ListDeals(mgr.ID)
	if err != nil {
		b.failSafe(sess, err)
		return
	}
	if len(deals) == 0 {
		b.send(sess, msgNoDeals)
		return
	}

	lines := []string{"📂 Ваши сделки:"}
	for _, d := range deals {
		amount := "не указана"
		if d.Amount.Valid {
			amount = d.Amount.Decimal.StringFixed(2)
		}
		lines = append(lines, fmt.Sprintf("• #%d %s (%s) — %s, сумма: %s",
			d.ID, d.Client.Name, d.Client.PhoneNumber, d.Status.Label(), amount))
	}
	b.send(sess, strings.Join(lines, "\n"))
}

func (b *BotService) sendSupervisorOverview(sess *session.Session) {
	rows, err := b.deals.StatusSummary()
	if err != nil {
		b.failSafe(sess, err)
		return
	}

	lines := []string{"📊 Сводка по всем сделкам:"}
	var total int64
	for _, row := range rows {
		total += row.Count
		lines = append(lines, fmt.Sprintf("• %s: %d шт., сумма %s",
			row.Status.Label(), row.Count, row.Total.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Всего сделок: %d", total))
	overview := strings.Join(lines, "\n")

	if tip := b.advice(llm.BuildSupervisorSummary(overview)); tip != "" {
		overview += "\n\n💡 " + tip
	}
	b.send(sess, overview)
}

// --- settings ---

func (b *BotService) handleSettingsAuth(sess *session.Session, u telegram.Update, text string) {
	if text != b.settings.SupervisorPassword() {
		b.send(sess, msgWrongPassword)
		return
	}

	authCtx := sess.Scratch[session.KeyAuthContext]
	delete(sess.Scratch, session.KeyAuthContext)

	if authCtx == authSupervisor {
		b.transition(sess, session.StateIdle)
		b.sendSupervisorOverview(sess)
		return
	}
	b.transition(sess, session.StateSettingsMenu)
	b.sendKeyboard(sess, msgAskSetting, telegram.SettingsKeyboard())
}

func (b *BotService) handleSettingsMenu(sess *session.Session, u telegram.Update, text string) {
	switch u.Callback {
	case telegram.CallbackSettingsHours:
		sess.Scratch[session.KeySettingsAction] = SettingWorkdayHours
		b.send(sess, "Укажите рабочее время в формате ЧЧ:ММ-ЧЧ:ММ, например 09:00-18:00.")
		return
	case telegram.CallbackSettingsLunch:
		sess.Scratch[session.KeySettingsAction] = SettingLunchHours
		b.send(sess, "Укажите время обеда в формате ЧЧ:ММ-ЧЧ:ММ, например 13:00-14:00.")
		return
	case telegram.CallbackSettingsOpenAI:
		sess.Scratch[session.KeySettingsAction] = SettingOpenAIKey
		b.send(sess, "Отправьте новый ключ OpenAI:")
		return
	case telegram.CallbackSettingsPassword:
		sess.Scratch[session.KeySettingsAction] = SettingPassword
		b.send(sess, "Отправьте новый пароль:")
		return
	}

	action := sess.Scratch[session.KeySettingsAction]
	if action == "" {
		b.sendKeyboard(sess, msgPickSetting, telegram.SettingsKeyboard())
		return
	}

	if err := b.settings.Update(action, text); err != nil {
		if errors.Is(err, ErrInvalidSetting) {
			b.send(sess, msgBadSetting)
			return
		}
		b.failSafe(sess, err)
		return
	}

	delete(sess.Scratch, session.KeySettingsAction)
	b.transition(sess, session.StateIdle)
	b.sendMenu(sess, msgSettingSaved+"\n\n"+telegram.RenderMainMenu())
}

// --- shared helpers ---

func (b *BotService) requireDeal(sess *session.Session) bool {
	if sess.ActiveDealID == 0 {
		b.send(sess, msgChooseDeal)
		return false
	}
	return true
}

// transition purges remembered prompts of the previous step before the
// next prompt goes out.
func (b *BotService) transition(sess *session.Session, next session.State) {
	b.purge(sess)
	sess.State = next
}

func (b *BotService) purge(sess *session.Session) {
	for _, id := range sess.DrainHistory() {
		if err := b.provider.DeleteMessage(sess.ChatID, id); err != nil {
			log.Debug().Err(err).Int("message_id", id).Msg("message cleanup skipped")
		}
	}
}

func (b *BotService) send(sess *session.Session, text string) {
	id, err := b.provider.SendMessage(sess.ChatID, text)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", sess.ChatID).Msg("send failed")
		return
	}
	sess.Remember(id)
}

func (b *BotService) sendKeyboard(sess *session.Session, text string, rows [][]telegram.Button) {
	id, err := b.provider.SendKeyboard(sess.ChatID, text, rows)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", sess.ChatID).Msg("send failed")
		return
	}
	sess.Remember(id)
}

func (b *BotService) sendMenu(sess *session.Session, text string) {
	b.sendKeyboard(sess, text, telegram.MainMenuKeyboard())
}

// failSafe reports a generic failure and returns the chat to a recoverable
// state without losing the active deal.
func (b *BotService) failSafe(sess *session.Session, err error) {
	log.Error().Err(err).Int64("chat_id", sess.ChatID).Str("state", string(sess.State)).Msg("handler failed")
	b.transition(sess, session.StateIdle)
	b.send(sess, msgGenericFailure)
}

// advice asks the model and swallows failures: AI commentary is optional
// and never blocks the CRM action it decorates.
func (b *BotService) advice(prompt string) string {
	if b.advisor == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), adviceTimeout)
	defer cancel()

	out, err := b.advisor.Advice(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("advice unavailable")
		return ""
	}
	return strings.TrimSpace(out)
}

func dealSummary(deal *models.Deal) string {
	amount := "не указана"
	if deal.Amount.Valid {
		amount = deal.Amount.Decimal.StringFixed(2)
	}
	return fmt.Sprintf("💼 Сделка #%d\nКлиент: %s (%s)\nСтатус: %s\nСумма: %s",
		deal.ID, deal.Client.Name, deal.Client.PhoneNumber, deal.Status.Label(), amount)
}

// --- session persistence ---

func (b *BotService) snapshot(sess *session.Session) {
	if b.sessionRepo == nil {
		return
	}

	scratch := datatypes.JSONMap{}
	for k, v := range sess.Scratch {
		scratch[k] = v
	}
	history, err := json.Marshal(sess.History())
	if err != nil {
		history = []byte("[]")
	}

	snap := &models.ChatSession{
		ChatID:       sess.ChatID,
		State:        string(sess.State),
		ActiveDealID: sess.ActiveDealID,
		Scratch:      scratch,
		History:      datatypes.JSON(history),
	}
	if err := b.sessionRepo.Save(snap); err != nil {
		log.Warn().Err(err).Int64("chat_id", sess.ChatID).Msg("session snapshot failed")
	}
}

func (b *BotService) hydrate(sess *session.Session) {
	if b.sessionRepo == nil {
		return
	}

	snap, err := b.sessionRepo.Load(sess.ChatID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Err(err).Int64("chat_id", sess.ChatID).Msg("session restore failed")
		}
		return
	}

	if snap.State != "" {
		sess.State = session.State(snap.State)
	}
	sess.ActiveDealID = snap.ActiveDealID
	for k, v := range snap.Scratch {
		if s, ok := v.(string); ok {
			sess.Scratch[k] = s
		}
	}

	var ids []int
	if err := json.Unmarshal(snap.History, &ids); err == nil {
		for _, id := range ids {
			sess.Remember(id)
		}
	}
}
