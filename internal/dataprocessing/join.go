package dataprocessing

import (
	"fmt"

	"orderpulse/internal/errors"
	"orderpulse/internal/table"
)

// Cardinality is the relationship a join must satisfy
type Cardinality string

const (
	ManyToOne Cardinality = "many_to_one"
	OneToOne  Cardinality = "one_to_one"
)

// JoinOptions configures SafeLeftJoin
type JoinOptions struct {
	On          string
	Validate    Cardinality
	RightSuffix string
}

// JoinResult is the joined frame plus how many primary rows found a match
type JoinResult struct {
	Frame       *table.Frame
	MatchedRows int
}

// ResolveJoinKey returns the first candidate present in both frames
func ResolveJoinKey(left, right *table.Frame, candidates []string) (string, bool) {
	for _, c := range candidates {
		if left.Has(c) && right.Has(c) {
			return c, true
		}
	}
	return "", false
}

// SafeLeftJoin keeps every row of left, in order, and attaches at most one
// row of right per key. A key repeated in right is a cardinality error, as is
// a key repeated in left under OneToOne. Null keys never match. Right-side
// columns that collide with left names get RightSuffix; left names never change.
func SafeLeftJoin(left, right *table.Frame, opts JoinOptions) (*JoinResult, error) {
	if opts.Validate == "" {
		opts.Validate = ManyToOne
	}
	if opts.Validate != ManyToOne && opts.Validate != OneToOne {
		return nil, errors.NewAppValidationError(fmt.Sprintf("unsupported join validation %q", opts.Validate))
	}

	lcol, ok := left.Column(opts.On)
	if !ok {
		return nil, errors.NewMissingColumnsError("join primary table", []string{opts.On}, left.Names())
	}
	rcol, ok := right.Column(opts.On)
	if !ok {
		return nil, errors.NewMissingColumnsError("join secondary table", []string{opts.On}, right.Names())
	}

	rkeys := AsText(rcol)
	index, err := uniqueIndex(opts.On, rkeys)
	if err != nil {
		return nil, err
	}

	lkeys := AsText(lcol)
	if opts.Validate == OneToOne {
		if _, err := uniqueIndex(opts.On, lkeys); err != nil {
			return nil, err
		}
	}

	idx := make([]int, left.Len())
	matched := 0
	for i := range idx {
		idx[i] = -1
		key, ok := lkeys.At(i)
		if !ok {
			continue
		}
		if j, found := index[key]; found {
			idx[i] = j
			matched++
		}
	}

	cols := left.Columns()
	for _, c := range right.Columns() {
		if c.Name() == opts.On {
			continue
		}
		taken := c.Take(idx)
		if left.Has(c.Name()) {
			renamed := c.Name() + opts.RightSuffix
			if opts.RightSuffix == "" || left.Has(renamed) || right.Has(renamed) {
				return nil, errors.NewAppValidationError(
					fmt.Sprintf("join column %q collides and suffix %q does not resolve it", c.Name(), opts.RightSuffix))
			}
			taken = taken.Rename(renamed)
		}
		cols = append(cols, taken)
	}

	frame, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Frame: frame, MatchedRows: matched}, nil
}

// uniqueIndex maps each non-null key to its row, failing on the first repeat
func uniqueIndex(column string, keys *table.Series[string]) (map[string]int, error) {
	index := make(map[string]int, keys.Len())
	counts := make(map[string]int)
	var firstDup string
	hasDup := false
	for i := 0; i < keys.Len(); i++ {
		key, ok := keys.At(i)
		if !ok {
			continue
		}
		if _, dup := index[key]; dup {
			if !hasDup {
				firstDup, hasDup = key, true
			}
			counts[key]++
			continue
		}
		index[key] = i
		counts[key] = 1
	}
	if hasDup {
		return nil, errors.NewCardinalityError(column, firstDup, counts[firstDup])
	}
	return index, nil
}
