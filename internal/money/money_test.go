package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatter_Amount(t *testing.T) {
	format := NewFormatter("${{amount}}")

	assert.Equal(t, "$19.90", format(1990))
	assert.Equal(t, "$0.00", format(0))
	assert.Equal(t, "$1,234,567.89", format(123456789))
	assert.Equal(t, "$-5.00", format(-500))
}

func TestFormatter_AmountNoDecimals(t *testing.T) {
	format := NewFormatter("{{amount_no_decimals}} kr")

	assert.Equal(t, "20 kr", format(1990))
	assert.Equal(t, "1,235 kr", format(123450))
}

func TestFormatter_EmptyFormatUsesDefault(t *testing.T) {
	format := NewFormatter("")

	assert.Equal(t, "$19.90", format(1990))
}

func TestFormatter_LiteralTextPreserved(t *testing.T) {
	format := NewFormatter("EUR {{amount}} incl. VAT")

	assert.Equal(t, "EUR 10.00 incl. VAT", format(1000))
}
