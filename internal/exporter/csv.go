package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"orderpulse/internal/config"
	"orderpulse/internal/dataprocessing"
	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative paths resolve under the reports directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV replaces filePath with the given header and records
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return errors.NewStorageError("failed to create "+fullPath, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return errors.NewStorageError("failed to write headers", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush "+fullPath, err)
	}
	return file.Close()
}

// WriteMissingness writes a missingness report as column,n_missing,p_missing
func (w *CSVWriter) WriteMissingness(filePath string, entries []dataprocessing.MissingEntry) error {
	records := make([][]string, len(entries))
	for i, e := range entries {
		records[i] = []string{e.Column, formatInt(e.Missing), formatProportion(e.Proportion)}
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: []string{"column", "n_missing", "p_missing"},
		Records: records,
	})
}

// WriteRevenueByCountry writes country,order_count,total_revenue in the given order
func (w *CSVWriter) WriteRevenueByCountry(filePath string, rows []domain.CountryRevenue) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Country, formatInt(r.Orders), formatFloat(r.Revenue)}
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: []string{"country", "order_count", "total_revenue"},
		Records: records,
	})
}

// resolvePath resolves a relative path against the reports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.ReportsDir, filePath)
}
