package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders a minor-currency-unit amount as a display string.
type Formatter func(minorUnits int64) string

// DefaultFormat is used when no format string is configured.
const DefaultFormat = "${{amount}}"

// NewFormatter builds a Formatter from a storefront-style format string.
// Supported tokens: {{amount}} (1,234.56) and {{amount_no_decimals}} (1,235).
func NewFormatter(format string) Formatter {
	if format == "" {
		format = DefaultFormat
	}
	return func(minorUnits int64) string {
		amount := decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(100))
		out := strings.ReplaceAll(format, "{{amount}}", groupThousands(amount.StringFixed(2)))
		out = strings.ReplaceAll(out, "{{amount_no_decimals}}", groupThousands(amount.Round(0).StringFixed(0)))
		return out
	}
}

// groupThousands inserts comma separators into the integer part of a plain
// decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart + frac
	if neg {
		out = "-" + out
	}
	return out
}
