package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	"orderpulse/internal/dataprocessing"
	"orderpulse/internal/shared/testutil"
	"orderpulse/pkg/contracts/domain"
)

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(&config.Paths{ReportsDir: filepath.Join(dir, "reports")}, logger), dir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		options WriteOptions
		wantBOM bool
	}{
		{
			name: "relative path goes to reports",
			file: "out.csv",
			options: WriteOptions{
				Headers: []string{"a", "b"},
				Records: [][]string{{"1", "x,y"}, {"2", `quote "q"`}},
			},
		},
		{
			name: "bom prefix",
			file: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"a"},
				Records:   [][]string{{"1"}},
				BOMPrefix: true,
			},
			wantBOM: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, dir := setupTestEnv(t)
			require.NoError(t, w.WriteCSV(tt.file, tt.options))

			path := filepath.Join(dir, "reports", tt.file)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))

			if !tt.wantBOM {
				records := readCSV(t, path)
				assert.Equal(t, append([][]string{tt.options.Headers}, tt.options.Records...), records)
			}
		})
	}
}

func TestCSVWriter_Overwrites(t *testing.T) {
	w, dir := setupTestEnv(t)
	abs := filepath.Join(dir, "elsewhere", "x.csv")

	require.NoError(t, w.WriteCSV(abs, WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}, {"2"}}}))
	require.NoError(t, w.WriteCSV(abs, WriteOptions{Headers: []string{"a"}, Records: [][]string{{"3"}}}))

	assert.Equal(t, [][]string{{"a"}, {"3"}}, readCSV(t, abs))
}

func TestCSVWriter_Reports(t *testing.T) {
	w, dir := setupTestEnv(t)

	require.NoError(t, w.WriteMissingness("missingness_orders.csv", []dataprocessing.MissingEntry{
		{Column: "amount", Missing: 1, Proportion: 0.25},
		{Column: "order_id", Missing: 0, Proportion: 0},
	}))
	assert.Equal(t, [][]string{
		{"column", "n_missing", "p_missing"},
		{"amount", "1", "0.25"},
		{"order_id", "0", "0"},
	}, readCSV(t, filepath.Join(dir, "reports", "missingness_orders.csv")))

	require.NoError(t, w.WriteRevenueByCountry("revenue_by_country.csv", []domain.CountryRevenue{
		{Country: "US", Orders: 2, Revenue: 250},
		{Country: "DE", Orders: 1, Revenue: 13.4},
	}))
	assert.Equal(t, [][]string{
		{"country", "order_count", "total_revenue"},
		{"US", "2", "250.00"},
		{"DE", "1", "13.40"},
	}, readCSV(t, filepath.Join(dir, "reports", "revenue_by_country.csv")))
}
