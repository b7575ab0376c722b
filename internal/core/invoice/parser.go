// Package invoice extracts text from PDF invoices and parses it into a
// total amount plus numbered line items.
package invoice

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Data is the structured result of parsing an invoice.
type Data struct {
	TotalAmount decimal.Decimal
	LineItems   []LineItem
}

// LineItem is one numbered row of an invoice.
type LineItem struct {
	LineNumber  int
	Description string
}

// Parse scans invoice text line by line. A line starting with "итого" or
// containing "total" carries the total amount as its last numeric token;
// lines starting with a digit are treated as "N description" items.
func Parse(text string) *Data {
	data := &Data{TotalAmount: decimal.Zero}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "итого") || strings.Contains(lower, "total") {
			if amount, ok := lastAmount(line); ok {
				data.TotalAmount = amount
			}
			continue
		}

		if firstRuneIsDigit(line) {
			if item, ok := parseItemLine(line); ok {
				data.LineItems = append(data.LineItems, item)
			}
		}
	}

	return data
}

// lastAmount returns the last numeric token of the line, with decimal
// commas normalized to dots.
func lastAmount(line string) (decimal.Decimal, bool) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", "."))
	for i := len(fields) - 1; i >= 0; i-- {
		token := strings.Trim(fields[i], ":;")
		if amount, err := decimal.NewFromString(token); err == nil {
			return amount, true
		}
	}
	return decimal.Zero, false
}

func firstRuneIsDigit(line string) bool {
	for _, r := range line {
		return unicode.IsDigit(r)
	}
	return false
}

func parseItemLine(line string) (LineItem, bool) {
	numberStr, description, found := strings.Cut(line, " ")
	if !found {
		return LineItem{}, false
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, numberStr)

	lineNumber, err := strconv.Atoi(digits)
	if err != nil {
		return LineItem{}, false
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, false
	}
	return LineItem{LineNumber: lineNumber, Description: description}, true
}
