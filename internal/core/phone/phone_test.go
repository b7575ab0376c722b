package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalForms(t *testing.T) {
	for _, raw := range []string{"87771234567", "+77771234567", "7771234567"} {
		got, err := Normalize(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, "+77771234567", got, "input %q", raw)
	}
}

func TestNormalizeFormattedInput(t *testing.T) {
	got, err := Normalize("+7 (777) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, "+77771234567", got)

	got, err = Normalize("8 777 123 45 67")
	require.NoError(t, err)
	assert.Equal(t, "+77771234567", got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := Normalize("87771234567")
	require.NoError(t, err)
	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "12345", "+1 202 555 0147 99", "977712345678901"} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidPhone, "input %q", raw)
	}
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "4567", Suffix("+77771234567"))
	assert.Equal(t, "4567", Suffix("8 777 123 45 67"))
	assert.Equal(t, "123", Suffix("123"))
	assert.Equal(t, "", Suffix(""))
}
