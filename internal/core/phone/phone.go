// Package phone normalizes Kazakhstan phone numbers to +7XXXXXXXXXX and
// derives the 4-digit suffix used for deal lookups.
package phone

import (
	"errors"
	"fmt"
	"regexp"
)

const countryCode = "+7"

// ErrInvalidPhone is returned for input that cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number")

var nonDigits = regexp.MustCompile(`\D`)

// Normalize converts raw phone text to the canonical +7XXXXXXXXXX form.
// Accepted shapes: 8XXXXXXXXXX, 7XXXXXXXXXX, +7XXXXXXXXXX and a bare
// 10-digit local number.
func Normalize(raw string) (string, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidPhone)
	}

	switch {
	case len(digits) == 11 && digits[0] == '8':
		digits = "7" + digits[1:]
	case len(digits) == 11 && digits[0] == '7':
		// already country-prefixed
	case len(digits) == 10:
		digits = "7" + digits
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}

	normalized := countryCode + digits[1:]
	if len(normalized) != 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return normalized, nil
}

// Suffix returns the last 4 digits of a phone number, or all of them when
// fewer than 4 are present.
func Suffix(number string) string {
	digits := nonDigits.ReplaceAllString(number, "")
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
