package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		New:            {New, InvoiceSent, PaymentPending, Cancelled, LongTerm},
		InvoiceSent:    {InvoiceSent, PaymentPending, Paid, Cancelled, LongTerm},
		PaymentPending: {PaymentPending, Paid, Cancelled, LongTerm},
		Paid:           {Paid},
		Cancelled:      {Cancelled},
		LongTerm:       {LongTerm},
	}

	for _, current := range All() {
		allowedSet := map[Status]bool{}
		for _, s := range allowed[current] {
			allowedSet[s] = true
		}
		for _, target := range All() {
			err := ValidateTransition(current, target)
			if allowedSet[target] {
				assert.NoError(t, err, "%s -> %s must be allowed", current, target)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s must be rejected", current, target)
			}
		}
	}
}

func TestSelfTransitionAlwaysAllowed(t *testing.T) {
	for _, s := range All() {
		assert.NoError(t, ValidateTransition(s, s))
	}
}

func TestTerminalStatusesAreDeadEnds(t *testing.T) {
	for _, s := range []Status{Paid, Cancelled, LongTerm} {
		assert.True(t, s.IsTerminal())
		assert.ErrorIs(t, ValidateTransition(s, New), ErrInvalidTransition)
	}
	assert.False(t, New.IsTerminal())
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	assert.ErrorIs(t, ValidateTransition("frobnicate", New), ErrUnknownStatus)
	assert.ErrorIs(t, ValidateTransition(New, "frobnicate"), ErrUnknownStatus)
}

func TestNormalize(t *testing.T) {
	cases := map[string]Status{
		"new":               New,
		"Новый":             New,
		"  новый  ":         New,
		"отправлен счёт":    InvoiceSent,
		"отправлен счет":    InvoiceSent,
		"ОЖИДАЕТСЯ ОПЛАТА":  PaymentPending,
		"оплачен":           Paid,
		"отменен":           Cancelled,
		"долгосрочный":      LongTerm,
		"long_term":         LongTerm,
		"ожидается  оплата": PaymentPending,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, label := range []string{"Новый", "отправлен счёт", "оплачен", "payment_pending"} {
		first, err := Normalize(label)
		require.NoError(t, err)
		second, err := Normalize(string(first))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestNormalizeUnknown(t *testing.T) {
	_, err := Normalize("frobnicate")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = Normalize("")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestLabels(t *testing.T) {
	for _, s := range All() {
		assert.NotEmpty(t, s.Label())
	}
}
