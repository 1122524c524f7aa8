package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "$0.00"},
		{"cents", 0.5, "$0.50"},
		{"hundreds", 100, "$100.00"},
		{"thousands", 1234.56, "$1,234.56"},
		{"millions", 1234567.891, "$1,234,567.89"},
		{"exact group", 100000, "$100,000.00"},
		{"negative", -2500.1, "-$2,500.10"},
		{"nan", math.NaN(), "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.in))
		})
	}

	assert.Equal(t, "N/A", FormatMoneyPtr(nil))
}

func TestOrdinalAndPercentile(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 99: "99th"}
	for in, want := range tests {
		assert.Equal(t, want, ordinal(in))
	}

	assert.Equal(t, "p01", percentileLabel(0.01))
	assert.Equal(t, "p99", percentileLabel(0.99))
	assert.Equal(t, 95, percentile(0.95))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "13.40", formatFloat(13.4))
	assert.Equal(t, "0.25", formatProportion(0.25))
	assert.Equal(t, "7", formatInt(7))
}
