package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatProportion keeps full precision for values in [0, 1]
func formatProportion(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// FormatMoney renders an amount as $1,234.56. Negative amounts are -$1,234.56.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	text := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(text, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatMoneyPtr is FormatMoney with "N/A" for a missing amount
func FormatMoneyPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return FormatMoney(*v)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ordinal renders 1 as 1st, 2 as 2nd, 11 as 11th, 99 as 99th
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// percentile converts a quantile in [0, 1] to a whole percentile
func percentile(q float64) int {
	return int(math.Round(q * 100))
}

// percentileLabel renders 0.01 as p01 and 0.99 as p99
func percentileLabel(q float64) string {
	return fmt.Sprintf("p%02d", percentile(q))
}
