// Package intent classifies idle-state free text from managers into a fixed
// intent set using an ordered rule chain. Order matters: a bare phone number
// and a bare 4-digit lookup must win before the generic interaction rule.
package intent

import (
	"regexp"
	"strings"
)

// Intent is one of the fixed classification outcomes.
type Intent string

const (
	MainMenu         Intent = "main_menu"
	CreateClient     Intent = "create_client"
	DealSearch       Intent = "deal_search"
	Interaction      Intent = "interaction"
	Reminder         Intent = "reminder"
	StatusChange     Intent = "status_change"
	SupervisorReport Intent = "supervisor_report"
	Settings         Intent = "settings"
	DealSummary      Intent = "deal_summary"
	InvoiceRequest   Intent = "invoice_request"
	Unknown          Intent = "unknown"
)

// Payload keys carried by Result.
const (
	PayloadPhone      = "phone"
	PayloadSuffix     = "suffix"
	PayloadSummary    = "summary"
	PayloadText       = "text"
	PayloadStatus     = "status"
	PayloadIdentifier = "identifier"
)

// Result is the parsed intent plus extracted entities.
type Result struct {
	Intent  Intent
	Payload map[string]string
}

var (
	phoneRe      = regexp.MustCompile(`^\+?7[\d\s\-()]{8,}$`)
	digitsOnlyRe = regexp.MustCompile(`\D`)
	fourDigitsRe = regexp.MustCompile(`^[^\p{L}\d]*(\d{4})[^\p{L}\d]*$`)
	statusRe     = regexp.MustCompile(`(?i)перев[ео]ди?\s+сделк[уы]?\s*(\d{3,})?\s*(?:в|на)\s+([а-яё\s]+)`)
)

var interactionKeywords = []string{"позвони", "звонок", "написал", "отправил", "письмо"}

// rule is one predicate in the chain; the first match wins.
type rule struct {
	intent Intent
	match  func(norm, raw string) (map[string]string, bool)
}

func keywordRule(intent Intent, keywords ...string) rule {
	return rule{intent: intent, match: func(norm, raw string) (map[string]string, bool) {
		for _, kw := range keywords {
			if strings.Contains(norm, kw) {
				return map[string]string{PayloadText: strings.TrimSpace(raw)}, true
			}
		}
		return nil, false
	}}
}

var rules = []rule{
	keywordRule(MainMenu, "меню"),
	{intent: CreateClient, match: func(norm, raw string) (map[string]string, bool) {
		compact := strings.ReplaceAll(norm, " ", "")
		if !phoneRe.MatchString(compact) {
			return nil, false
		}
		digits := digitsOnlyRe.ReplaceAllString(norm, "")
		return map[string]string{PayloadPhone: "+" + digits}, true
	}},
	{intent: DealSearch, match: func(norm, raw string) (map[string]string, bool) {
		m := fourDigitsRe.FindStringSubmatch(norm)
		if m == nil {
			return nil, false
		}
		return map[string]string{PayloadSuffix: m[1]}, true
	}},
	keywordRule(Reminder, "напомни"),
	{intent: Interaction, match: func(norm, raw string) (map[string]string, bool) {
		for _, kw := range interactionKeywords {
			if strings.Contains(norm, kw) {
				return map[string]string{PayloadSummary: strings.TrimSpace(raw)}, true
			}
		}
		return nil, false
	}},
	{intent: StatusChange, match: func(norm, raw string) (map[string]string, bool) {
		m := statusRe.FindStringSubmatch(norm)
		if m == nil {
			return nil, false
		}
		payload := map[string]string{PayloadStatus: strings.TrimSpace(m[2])}
		if m[1] != "" {
			payload[PayloadIdentifier] = m[1]
		}
		return payload, true
	}},
	keywordRule(InvoiceRequest, "счёт", "счет"),
	keywordRule(SupervisorReport, "отч", "сводк"),
	keywordRule(Settings, "настрой"),
	keywordRule(DealSummary, "мои сделки", "список сделок"),
}

// Parse returns the best-effort intent for manager input. Text longer than
// three words falls back to a free-text interaction log; shorter unmatched
// input is Unknown.
func Parse(text string) Result {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return Result{Intent: Unknown, Payload: map[string]string{}}
	}

	for _, r := range rules {
		if payload, ok := r.match(norm, text); ok {
			return Result{Intent: r.intent, Payload: payload}
		}
	}

	if len(strings.Fields(norm)) > 3 {
		return Result{Intent: Interaction, Payload: map[string]string{PayloadSummary: strings.TrimSpace(text)}}
	}
	return Result{Intent: Unknown, Payload: map[string]string{}}
}

// ClassifyInteraction derives the interaction type recorded on the log
// entry from free text.
func ClassifyInteraction(text string) string {
	norm := strings.ToLower(text)
	switch {
	case strings.Contains(norm, "звон") || strings.Contains(norm, "позвони"):
		return "call"
	case strings.Contains(norm, "письмо") || strings.Contains(norm, "почт") || strings.Contains(norm, "email"):
		return "email"
	case strings.Contains(norm, "написал") || strings.Contains(norm, "сообщ"):
		return "message"
	default:
		return "generic"
	}
}
