package table

import (
	"fmt"
)

// Frame is an ordered set of equal-length named columns.
// Frames are treated as immutable: operations return new frames and
// share column storage with their input.
type Frame struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a frame from columns. Names must be unique and lengths equal.
func New(cols ...Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name())
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("table: column %q has %d rows, expected %d", c.Name(), c.Len(), f.rows)
		}
		f.index[c.Name()] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// MustNew is New for statically known columns; it panics on error
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// Empty returns a frame with the given string columns and no rows
func Empty(names ...string) *Frame {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = NewSeries[string](n, nil, nil)
	}
	return MustNew(cols...)
}

// Len returns the number of rows
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.cols) }

// Names returns column names in order
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Has reports whether a column exists
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns a column by name
func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Columns returns the columns in order
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.cols))
	copy(out, f.cols)
	return out
}

// With returns a new frame with col appended, or replacing an existing
// column of the same name in place.
func (f *Frame) With(col Column) (*Frame, error) {
	if len(f.cols) > 0 && col.Len() != f.rows {
		return nil, fmt.Errorf("table: column %q has %d rows, expected %d", col.Name(), col.Len(), f.rows)
	}
	cols := f.Columns()
	if i, ok := f.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// MustWith is With for columns derived from the frame itself
func (f *Frame) MustWith(cols ...Column) *Frame {
	out := f
	for _, c := range cols {
		var err error
		out, err = out.With(c)
		if err != nil {
			panic(err)
		}
	}
	return out
}

// Drop returns a new frame without the named columns
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var cols []Column
	for _, c := range f.cols {
		if !skip[c.Name()] {
			cols = append(cols, c)
		}
	}
	out := MustNew(cols...)
	if len(cols) == 0 {
		out.rows = f.rows
	}
	return out
}

// Take gathers rows by index; -1 yields a null row
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.Take(idx)
	}
	out := MustNew(cols...)
	out.rows = len(idx)
	return out
}

// Filter keeps the rows for which keep returns true
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	var idx []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		idx = []int{}
	}
	return f.Take(idx)
}

// Get returns a typed column. It fails if the column is absent or has another type.
func Get[T any](f *Frame, name string) (*Series[T], error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	s, ok := c.(*Series[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("table: column %q is %T, not %T", name, c, zero)
	}
	return s, nil
}

// Lookup is Get for optional columns: it returns nil when the column is absent or mistyped
func Lookup[T any](f *Frame, name string) *Series[T] {
	s, err := Get[T](f, name)
	if err != nil {
		return nil
	}
	return s
}
