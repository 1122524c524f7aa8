package dataprocessing

import (
	"sort"

	"orderpulse/internal/errors"
	"orderpulse/internal/table"
)

// MissingEntry is one row of a missingness report
type MissingEntry struct {
	Column     string  `json:"column"`
	Missing    int     `json:"missing"`
	Proportion float64 `json:"proportion"`
}

// RequireColumns fails with a schema error naming every absent column
func RequireColumns(frame *table.Frame, name string, required []string) error {
	var missing []string
	for _, c := range required {
		if !frame.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnsError(name, missing, frame.Names())
	}
	return nil
}

// AssertNonEmpty fails when the frame has zero rows
func AssertNonEmpty(frame *table.Frame, name string) error {
	if frame.Len() == 0 {
		return errors.NewEmptyTableError(name)
	}
	return nil
}

// MissingnessReport counts nulls per column, sorted by proportion descending.
// Ties keep the frame's column order. An empty frame reports zeros.
func MissingnessReport(frame *table.Frame) []MissingEntry {
	rows := frame.Len()
	entries := make([]MissingEntry, 0, frame.Width())
	for _, col := range frame.Columns() {
		missing := col.NullCount()
		proportion := 0.0
		if rows > 0 {
			proportion = float64(missing) / float64(rows)
		}
		entries = append(entries, MissingEntry{
			Column:     col.Name(),
			Missing:    missing,
			Proportion: proportion,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Proportion > entries[j].Proportion
	})
	return entries
}

// MissingCounts returns the null count of every column
func MissingCounts(frame *table.Frame) map[string]int {
	counts := make(map[string]int, frame.Width())
	for _, col := range frame.Columns() {
		counts[col.Name()] = col.NullCount()
	}
	return counts
}

// CountDuplicates counts occurrences of an identifier beyond its first.
// Nulls are not identifier values and never count as duplicates.
func CountDuplicates(frame *table.Frame, column string) (int, error) {
	col, ok := frame.Column(column)
	if !ok {
		return 0, errors.NewMissingColumnsError("duplicate check", []string{column}, frame.Names())
	}

	seen := make(map[string]struct{}, col.Len())
	duplicates := 0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		key := col.Format(i)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates, nil
}
