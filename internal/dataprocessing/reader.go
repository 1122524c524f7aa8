package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderpulse/internal/errors"
	"orderpulse/internal/table"
)

const utf8BOM = "\uFEFF"

// ReadOptions controls how raw tables are read
type ReadOptions struct {
	// NAMarkers are cell values (after trimming) read as null
	NAMarkers []string
	// Sheet selects the worksheet of an .xlsx input; empty means the first sheet
	Sheet string
}

// ReadTable reads a raw table from a .csv or .xlsx file into an all-string frame.
// Header names are trimmed and lowercased; cells are trimmed and NA markers become null.
func ReadTable(path string, opts ReadOptions) (*table.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadTableXLSX(path, opts)
	default:
		return ReadTableCSV(path, opts)
	}
}

// ReadTableCSV reads a comma-separated file with a header row
func ReadTableCSV(path string, opts ReadOptions) (*table.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(path)
		}
		return nil, errors.NewStorageError("failed to open "+path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParsingError(path+": no header row", nil)
	}
	if err != nil {
		return nil, errors.NewParsingError("failed to read header of "+path, err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("failed to read "+path, err)
		}
		records = append(records, record)
	}

	return buildFrame(path, header, records, opts)
}

// ReadTableXLSX reads a worksheet whose first row is the header
func ReadTableXLSX(path string, opts ReadOptions) (*table.Frame, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook "+path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParsingError(path+": workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %q of %s", sheet, path), err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError(path+": no header row", nil)
	}

	return buildFrame(path, rows[0], rows[1:], opts)
}

// buildFrame turns a header and raw records into string columns
func buildFrame(source string, header []string, records [][]string, opts ReadOptions) (*table.Frame, error) {
	names := NormalizeHeader(header)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, errors.NewParsingError(fmt.Sprintf("%s: duplicate column %q after normalization", source, n), nil)
		}
		seen[n] = true
	}

	na := make(map[string]bool, len(opts.NAMarkers))
	for _, m := range opts.NAMarkers {
		na[strings.TrimSpace(m)] = true
	}

	values := make([][]string, len(names))
	valid := make([][]bool, len(names))
	for c := range names {
		values[c] = make([]string, len(records))
		valid[c] = make([]bool, len(records))
	}

	for r, record := range records {
		if len(record) > len(names) {
			extra := record[len(names):]
			if strings.TrimSpace(strings.Join(extra, "")) != "" {
				return nil, errors.NewParsingError(
					fmt.Sprintf("%s: row %d has %d fields, header has %d", source, r+2, len(record), len(names)), nil)
			}
		}
		for c := range names {
			if c >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[c])
			if na[cell] {
				continue
			}
			values[c][r] = cell
			valid[c][r] = true
		}
	}

	cols := make([]table.Column, len(names))
	for c, n := range names {
		cols[c] = table.NewSeries(n, values[c], valid[c])
	}
	return table.New(cols...)
}

// NormalizeHeader trims and lowercases column names and strips a leading BOM
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}
