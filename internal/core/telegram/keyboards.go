package telegram

import "strings"

// Main menu button labels.
const (
	BtnSearchClient   = "Поиск клиента по номеру"
	BtnSearchBySuffix = "Последние 4 цифры"
	BtnAttachInvoice  = "Приложить счёт"
	BtnInteraction    = "Взаимодействие"
	BtnReminder       = "Напоминание"
	BtnSettings       = "Настройки"
	BtnAllDeals       = "Все сделки"
)

// Callback data values for inline keyboards.
const (
	CallbackInteractionMessage = "interaction:message"
	CallbackInteractionCall    = "interaction:call"
	CallbackInteractionEmail   = "interaction:email"

	CallbackReminderHour    = "reminder:+1h"
	CallbackReminderMorning = "reminder:next_morning"
	CallbackReminderManual  = "reminder:calendar"

	CallbackSettingsHours    = "settings:hours"
	CallbackSettingsLunch    = "settings:lunch"
	CallbackSettingsOpenAI   = "settings:openai"
	CallbackSettingsPassword = "settings:password"
)

// MainMenuKeyboard returns the persistent reply keyboard.
func MainMenuKeyboard() [][]Button {
	return [][]Button{
		{{Text: BtnSearchClient}},
		{{Text: BtnSearchBySuffix}},
		{{Text: BtnAttachInvoice}},
		{{Text: BtnInteraction}},
		{{Text: BtnReminder}},
		{{Text: BtnSettings}},
		{{Text: BtnAllDeals}},
	}
}

// InteractionKeyboard lists interaction type choices.
func InteractionKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Сообщение", Data: CallbackInteractionMessage}},
		{{Text: "Звонок", Data: CallbackInteractionCall}},
		{{Text: "Электронная почта", Data: CallbackInteractionEmail}},
	}
}

// ReminderPresetKeyboard lists relative-time presets plus manual entry.
func ReminderPresetKeyboard() [][]Button {
	return [][]Button{
		{
			{Text: "Через 1 час", Data: CallbackReminderHour},
			{Text: "Завтра утром", Data: CallbackReminderMorning},
		},
		{{Text: "Выбрать дату", Data: CallbackReminderManual}},
	}
}

// SettingsKeyboard lists the editable settings.
func SettingsKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Рабочее время", Data: CallbackSettingsHours}},
		{{Text: "Обед", Data: CallbackSettingsLunch}},
		{{Text: "OpenAI ключ", Data: CallbackSettingsOpenAI}},
		{{Text: "Пароль", Data: CallbackSettingsPassword}},
	}
}

var mainMenuItems = []string{
	"Добавить клиента (пришлите номер телефона)",
	"Найти клиента (введите последние 4 цифры)",
	"Мои сделки",
	"Добавить напоминание",
	"Настройки",
}

var dealContextItems = []string{
	"Добавить взаимодействие (например: 'позвонил клиенту')",
	"Загрузить счёт (отправьте PDF)",
	"Изменить статус (например: 'переведи сделку в оплачен')",
	"Вернуться в главное меню",
}

// RenderMainMenu returns the textual main menu.
func RenderMainMenu() string {
	lines := []string{"📋 Главное меню:"}
	for _, item := range mainMenuItems {
		lines = append(lines, "• "+item)
	}
	lines = append(lines, "", "Чтобы выполнить действие, просто опишите его естественным языком.")
	return strings.Join(lines, "\n")
}

// RenderDealContext returns the contextual actions for the active deal.
func RenderDealContext() string {
	lines := []string{"🔧 Доступные действия по сделке:"}
	for _, item := range dealContextItems {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}
