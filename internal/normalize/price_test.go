package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"american grouping", "$1,234.56", 1234.56, true},
		{"european grouping", "€1.234,56", 1234.56, true},
		{"bare decimal comma", "99,95", 99.95, true},
		{"plain dollars", "$2,499.00", 2499.00, true},
		{"suffix currency", "1234.56 USD", 1234.56, true},
		{"integer", "45", 45, true},
		{"thousands only", "1,234", 1234, true},
		{"pound symbol", "£12.99", 12.99, true},
		{"whitespace", "  $ 10.00 ", 10.00, true},
		{"empty", "", 0, false},
		{"no digits", "call for price", 0, false},
		{"symbols only", "$", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestExtractNumeric(t *testing.T) {
	v, ok := ExtractNumeric("holds 1,500 gallons")
	assert.True(t, ok)
	assert.InDelta(t, 1500.0, v, 0.001)

	v, ok = ExtractNumeric("12.5 ft wide")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, v, 0.001)

	_, ok = ExtractNumeric("no numbers here")
	assert.False(t, ok)
}
