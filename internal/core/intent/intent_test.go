package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMainMenu(t *testing.T) {
	r := Parse("меню")
	assert.Equal(t, MainMenu, r.Intent)

	r = Parse("Покажи МЕНЮ пожалуйста")
	assert.Equal(t, MainMenu, r.Intent)
}

func TestParsePhoneNumber(t *testing.T) {
	for _, in := range []string{"+77771234567", "77771234567", "+7 777 123 45 67"} {
		r := Parse(in)
		assert.Equal(t, CreateClient, r.Intent, "input %q", in)
		assert.Equal(t, "+77771234567", r.Payload[PayloadPhone], "input %q", in)
	}
}

func TestBareFourDigitsIsSuffixSearchNotInteraction(t *testing.T) {
	r := Parse("1234")
	assert.Equal(t, DealSearch, r.Intent)
	assert.Equal(t, "1234", r.Payload[PayloadSuffix])
}

func TestFourDigitsWithNoiseStillSuffixSearch(t *testing.T) {
	r := Parse("  4567.")
	assert.Equal(t, DealSearch, r.Intent)
	assert.Equal(t, "4567", r.Payload[PayloadSuffix])
}

func TestParseReminder(t *testing.T) {
	r := Parse("напомни завтра позвонить клиенту")
	assert.Equal(t, Reminder, r.Intent)
}

func TestParseInteractionKeywords(t *testing.T) {
	r := Parse("позвонил клиенту, обсудили поставку")
	assert.Equal(t, Interaction, r.Intent)
	assert.Equal(t, "позвонил клиенту, обсудили поставку", r.Payload[PayloadSummary])
}

func TestParseStatusChange(t *testing.T) {
	r := Parse("переведи сделку в оплачен")
	assert.Equal(t, StatusChange, r.Intent)
	assert.Equal(t, "оплачен", r.Payload[PayloadStatus])
	assert.Empty(t, r.Payload[PayloadIdentifier])
}

func TestParseStatusChangeWithIdentifier(t *testing.T) {
	r := Parse("переведи сделку 4567 в долгосрочный")
	assert.Equal(t, StatusChange, r.Intent)
	assert.Equal(t, "долгосрочный", r.Payload[PayloadStatus])
	assert.Equal(t, "4567", r.Payload[PayloadIdentifier])
}

func TestParseInvoice(t *testing.T) {
	assert.Equal(t, InvoiceRequest, Parse("пришли счёт").Intent)
	assert.Equal(t, InvoiceRequest, Parse("нужен счет").Intent)
}

func TestParseReportSettingsSummary(t *testing.T) {
	assert.Equal(t, SupervisorReport, Parse("покажи отчёт").Intent)
	assert.Equal(t, SupervisorReport, Parse("сводка").Intent)
	assert.Equal(t, Settings, Parse("настройки").Intent)
	assert.Equal(t, DealSummary, Parse("мои сделки").Intent)
}

func TestLongFreeTextFallsBackToInteraction(t *testing.T) {
	r := Parse("клиент думает до конца недели о предложении")
	assert.Equal(t, Interaction, r.Intent)
	assert.NotEmpty(t, r.Payload[PayloadSummary])
}

func TestShortUnmatchedTextIsUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Parse("ок").Intent)
	assert.Equal(t, Unknown, Parse("").Intent)
	assert.Equal(t, Unknown, Parse("   ").Intent)
}

func TestClassifyInteraction(t *testing.T) {
	assert.Equal(t, "call", ClassifyInteraction("позвонил клиенту"))
	assert.Equal(t, "email", ClassifyInteraction("отправил письмо"))
	assert.Equal(t, "message", ClassifyInteraction("написал в whatsapp"))
	assert.Equal(t, "generic", ClassifyInteraction("встреча в офисе"))
}
