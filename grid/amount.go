package grid

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount normalizes raw cell input into an amount. Blank input and
// anything that fails numeric parsing yield nil; partial input while typing
// must clear the cell, never reject the keystroke. Thousands separators are
// stripped before parsing.
func ParseAmount(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	trimmed = strings.ReplaceAll(trimmed, ",", "")
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	return &d
}

// FormatAmount renders an amount with thousands separators, "" for nil.
func FormatAmount(amount *decimal.Decimal) string {
	if amount == nil {
		return ""
	}

	s := amount.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	b.WriteString(fracPart)
	return b.String()
}
