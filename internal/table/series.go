package table

import (
	"fmt"
	"strconv"
	"time"
)

// Column is the type-erased view of a Series used by Frame
type Column interface {
	Name() string
	Len() int
	IsNull(i int) bool
	NullCount() int
	// Format renders row i as text; nulls render as the empty string
	Format(i int) string
	// Take gathers rows by index; an index of -1 produces a null row
	Take(idx []int) Column
	Rename(name string) Column
}

// Series is a named, nullable, typed column
type Series[T any] struct {
	name   string
	values []T
	valid  []bool
}

// NewSeries creates a series. A nil valid slice marks every value present.
func NewSeries[T any](name string, values []T, valid []bool) *Series[T] {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	}
	if len(valid) != len(values) {
		panic(fmt.Sprintf("table: series %q has %d values but %d validity flags", name, len(values), len(valid)))
	}
	return &Series[T]{name: name, values: values, valid: valid}
}

// NewNullSeries creates a series of n null values
func NewNullSeries[T any](name string, n int) *Series[T] {
	return &Series[T]{name: name, values: make([]T, n), valid: make([]bool, n)}
}

// FromPointers builds a series from optional values
func FromPointers[T any](name string, ptrs []*T) *Series[T] {
	values := make([]T, len(ptrs))
	valid := make([]bool, len(ptrs))
	for i, p := range ptrs {
		if p != nil {
			values[i] = *p
			valid[i] = true
		}
	}
	return &Series[T]{name: name, values: values, valid: valid}
}

func (s *Series[T]) Name() string { return s.name }
func (s *Series[T]) Len() int     { return len(s.values) }

func (s *Series[T]) IsNull(i int) bool { return !s.valid[i] }

func (s *Series[T]) NullCount() int {
	n := 0
	for _, ok := range s.valid {
		if !ok {
			n++
		}
	}
	return n
}

// At returns the value at row i and whether it is present
func (s *Series[T]) At(i int) (T, bool) {
	return s.values[i], s.valid[i]
}

// Ptr returns a pointer to a copy of row i, or nil when null
func (s *Series[T]) Ptr(i int) *T {
	if !s.valid[i] {
		return nil
	}
	v := s.values[i]
	return &v
}

// Present returns the non-null values in row order
func (s *Series[T]) Present() []T {
	out := make([]T, 0, len(s.values))
	for i, v := range s.values {
		if s.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func (s *Series[T]) Format(i int) string {
	if !s.valid[i] {
		return ""
	}
	return formatValue(s.values[i])
}

func (s *Series[T]) Take(idx []int) Column {
	values := make([]T, len(idx))
	valid := make([]bool, len(idx))
	for j, i := range idx {
		if i < 0 {
			continue
		}
		values[j] = s.values[i]
		valid[j] = s.valid[i]
	}
	return &Series[T]{name: s.name, values: values, valid: valid}
}

func (s *Series[T]) Rename(name string) Column {
	return &Series[T]{name: name, values: s.values, valid: s.valid}
}

// Map derives a new series of the same length. fn reports whether its result is present;
// it is only called for present values.
func Map[T, U any](s *Series[T], name string, fn func(T) (U, bool)) *Series[U] {
	values := make([]U, s.Len())
	valid := make([]bool, s.Len())
	for i, v := range s.values {
		if !s.valid[i] {
			continue
		}
		values[i], valid[i] = fn(v)
	}
	return &Series[U]{name: name, values: values, valid: valid}
}

// NullMask returns a bool series that is true where s is null
func NullMask(c Column, name string) *Series[bool] {
	values := make([]bool, c.Len())
	for i := range values {
		values[i] = c.IsNull(i)
	}
	return NewSeries(name, values, nil)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
