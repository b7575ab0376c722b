// Package status defines the deal status lifecycle: the fixed set of
// statuses, their display labels and the table of allowed transitions.
package status

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the internal enum key stored on a deal.
type Status string

const (
	New            Status = "new"
	InvoiceSent    Status = "invoice_sent"
	PaymentPending Status = "payment_pending"
	Paid           Status = "paid"
	Cancelled      Status = "cancelled"
	LongTerm       Status = "long_term"
)

var (
	ErrUnknownStatus     = errors.New("unknown deal status")
	ErrInvalidTransition = errors.New("deal status transition not allowed")
)

// labels maps each status to the text shown to managers. Statuses arrive
// from chat either as these labels or as the internal keys.
var labels = map[Status]string{
	New:            "Новый",
	InvoiceSent:    "отправлен счёт",
	PaymentPending: "ожидается оплата",
	Paid:           "оплачен",
	Cancelled:      "отменен",
	LongTerm:       "долгосрочный",
}

// transitions lists the allowed next statuses for each current status.
// Self-transitions are always allowed so replays stay idempotent.
var transitions = map[Status][]Status{
	New:            {New, InvoiceSent, PaymentPending, Cancelled, LongTerm},
	InvoiceSent:    {InvoiceSent, PaymentPending, Paid, Cancelled, LongTerm},
	PaymentPending: {PaymentPending, Paid, Cancelled, LongTerm},
	Paid:           {Paid},
	Cancelled:      {Cancelled},
	LongTerm:       {LongTerm},
}

// All returns every status in a stable order.
func All() []Status {
	return []Status{New, InvoiceSent, PaymentPending, Paid, Cancelled, LongTerm}
}

// Label returns the display text for the status.
func (s Status) Label() string {
	return labels[s]
}

// IsTerminal reports whether no transition out of s is permitted.
func (s Status) IsTerminal() bool {
	return s == Paid || s == Cancelled || s == LongTerm
}

// canonical collapses case, surrounding whitespace and the е/ё spelling
// variance that the display labels arrive with from chat.
func canonical(text string) string {
	folded := strings.ToLower(strings.TrimSpace(text))
	folded = strings.Join(strings.Fields(folded), " ")
	return strings.ReplaceAll(folded, "ё", "е")
}

// Normalize maps an internal key or a display label to the canonical
// status. The match is exact after case/whitespace folding; anything else
// is ErrUnknownStatus.
func Normalize(text string) (Status, error) {
	needle := canonical(text)
	for _, s := range All() {
		if needle == string(s) || needle == canonical(labels[s]) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, text)
}

// ValidateTransition fails with ErrInvalidTransition when target is not in
// the allowed set for current. It never mutates anything; callers apply
// the change only after this check passes.
func ValidateTransition(current, target Status) error {
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if _, ok := labels[target]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}
