package llm

import "fmt"

const systemPrompt = "Ты — опытный ассистент по продажам. Отвечай по существу, лаконично и на русском языке, чтобы помочь менеджеру по продажам сделать следующий шаг."

const (
	promptDealAdvice    = "На основе истории взаимодействий и статуса сделки предложи менеджеру оптимальный следующий шаг."
	promptClientSummary = "Сформулируй краткое описание клиента по данным имени, города и интереса."
	promptInvoice       = "Опиши, что содержится в счёте и как можно использовать это для допродаж."
	promptReminderTip   = "Составь совет для менеджера при выполнении напоминания."
	promptStatusTip     = "Определи, что сделать после смены статуса, чтобы удержать клиента."
)

func BuildClientSummary(name, city, interest string) string {
	if name == "" {
		name = "не указано"
	}
	if city == "" {
		city = "не указан"
	}
	if interest == "" {
		interest = "не указан"
	}
	return fmt.Sprintf("%s\n\nИмя: %s\nГород: %s\nИнтерес: %s", promptClientSummary, name, city, interest)
}

func BuildDealAdvice(history, statusLabel string) string {
	if history == "" {
		history = "Нет взаимодействий"
	}
	return fmt.Sprintf("%s\n\nСтатус: %s\nИстория:\n%s", promptDealAdvice, statusLabel, history)
}

func BuildInvoiceSummary(pdfText string) string {
	return fmt.Sprintf("%s\n\n%s", promptInvoice, pdfText)
}

func BuildReminderTip(reminderText string) string {
	return fmt.Sprintf("%s\n\nНапоминание: %s", promptReminderTip, reminderText)
}

func BuildStatusTip(statusLabel, clientOverview string) string {
	return fmt.Sprintf("%s\n\nНовый статус: %s\nКонтекст:\n%s", promptStatusTip, statusLabel, clientOverview)
}

func BuildSupervisorSummary(snapshot string) string {
	return "Ты готовишь сводку для руководителя отдела продаж. Проанализируй данные ниже и выдели тренды, риски и рекомендации.\n\nДанные:\n" + snapshot
}

func BuildGreetingTip() string {
	return "Создай дружелюбное приветственное сообщение для менеджера CRM, который только начал работу с ботом."
}
