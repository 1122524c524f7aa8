package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
)

// CoercionStats counts, per column, present raw values that failed coercion and became null
type CoercionStats map[string]int

// Total returns the number of coerced values across columns
func (c CoercionStats) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// EnforceOrderSchema casts the raw orders columns to their types: identifiers
// stay text, amount becomes float64, quantity becomes int64. Unparseable values
// become null and are counted; rows are never dropped. Absent columns are skipped.
func EnforceOrderSchema(frame *table.Frame) (*table.Frame, CoercionStats, error) {
	stats := CoercionStats{}
	out := frame

	for _, name := range []string{config.ColOrderID, config.ColUserID} {
		col, ok := frame.Column(name)
		if !ok {
			continue
		}
		var err error
		if out, err = out.With(AsText(col)); err != nil {
			return nil, nil, err
		}
	}

	if col, ok := frame.Column(config.ColAmount); ok {
		s, failed := ToFloat(col)
		stats[config.ColAmount] = failed
		var err error
		if out, err = out.With(s); err != nil {
			return nil, nil, err
		}
	}

	if col, ok := frame.Column(config.ColQuantity); ok {
		s, failed := ToInt(col)
		stats[config.ColQuantity] = failed
		var err error
		if out, err = out.With(s); err != nil {
			return nil, nil, err
		}
	}

	return out, stats, nil
}

// EnforceUserSchema keeps user identifiers as text
func EnforceUserSchema(frame *table.Frame) (*table.Frame, error) {
	col, ok := frame.Column(config.ColUserID)
	if !ok {
		return frame, nil
	}
	return frame.With(AsText(col))
}

// AddMissingFlags adds a <col>__isna boolean column for each named column present
func AddMissingFlags(frame *table.Frame, columns ...string) (*table.Frame, error) {
	out := frame
	for _, name := range columns {
		col, ok := frame.Column(name)
		if !ok {
			continue
		}
		var err error
		if out, err = out.With(table.NullMask(col, name+config.MissingFlagSuffix)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AsText converts any column to nullable text, keeping nulls
func AsText(col table.Column) *table.Series[string] {
	if s, ok := col.(*table.Series[string]); ok {
		return s
	}
	values := make([]string, col.Len())
	valid := make([]bool, col.Len())
	for i := range values {
		if !col.IsNull(i) {
			values[i] = col.Format(i)
			valid[i] = true
		}
	}
	return table.NewSeries(col.Name(), values, valid)
}

// ToFloat converts a column to float64. It returns the number of present
// values that could not be parsed.
func ToFloat(col table.Column) (*table.Series[float64], int) {
	if s, ok := col.(*table.Series[float64]); ok {
		return s, 0
	}
	values := make([]float64, col.Len())
	valid := make([]bool, col.Len())
	failed := 0
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		v, ok := ParseNumber(col.Format(i))
		if !ok {
			failed++
			continue
		}
		values[i], valid[i] = v, true
	}
	return table.NewSeries(col.Name(), values, valid), failed
}

// ToInt converts a column to int64. Non-integral numbers are coercion failures.
func ToInt(col table.Column) (*table.Series[int64], int) {
	if s, ok := col.(*table.Series[int64]); ok {
		return s, 0
	}
	values := make([]int64, col.Len())
	valid := make([]bool, col.Len())
	failed := 0
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		text := col.Format(i)
		if n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			values[i], valid[i] = n, true
			continue
		}
		f, ok := ParseNumber(text)
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			failed++
			continue
		}
		values[i], valid[i] = int64(f), true
	}
	return table.NewSeries(col.Name(), values, valid), failed
}

// ParseNumber parses a decimal number. NaN and infinities are not numbers.
func ParseNumber(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
