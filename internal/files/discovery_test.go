package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")

	assert.NotNil(t, discovery)
	assert.Equal(t, "/test/base", discovery.basePath)
}

func TestFindTableFiles(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "csv and excel",
			files:    []string{"orders.csv", "users.XLSX", "macro.xlsm"},
			expected: []string{"orders.csv", "users.XLSX", "macro.xlsm"},
		},
		{
			name:     "skips other types and lock files",
			files:    []string{"orders.csv", "notes.txt", "~$users.xlsx", "old.xls"},
			expected: []string{"orders.csv"},
		},
		{
			name:     "empty directory",
			files:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, name := range tt.files {
				touch(t, dir, name, base.Add(time.Duration(i)*time.Hour))
			}

			found, err := NewDiscovery("").FindTableFiles(dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindTableFilesMissingDir(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindTableFiles("absent")
	assert.ErrorContains(t, err, "failed to read directory")
}

func TestResolveInput(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		files       []string
		configured  string
		want        string
		wantChanged bool
	}{
		{name: "configured file exists", files: []string{"orders.csv", "orders.xlsx"}, configured: "orders.csv", want: "orders.csv"},
		{name: "falls back to excel", files: []string{"orders.xlsx"}, configured: "orders.csv", want: "orders.xlsx", wantChanged: true},
		{name: "prefers csv over excel", files: []string{"users.xlsm", "users.CSV"}, configured: "users.xlsx", want: "users.CSV", wantChanged: true},
		{name: "ignores lock files", files: []string{"~$orders.xlsx"}, configured: "orders.csv", want: "orders.csv"},
		{name: "nothing matches", files: []string{"customers.csv"}, configured: "orders.csv", want: "orders.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			raw := filepath.Join(root, "data", "raw")
			require.NoError(t, os.MkdirAll(raw, 0755))
			for _, name := range tt.files {
				touch(t, raw, name, now)
			}

			got, changed := NewDiscovery(root).ResolveInput(filepath.Join("data", "raw", tt.configured))
			assert.Equal(t, filepath.Join(raw, tt.want), got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}
