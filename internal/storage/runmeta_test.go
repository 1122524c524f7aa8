package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

func sampleMeta() *domain.RunMeta {
	return &domain.RunMeta{
		RunID:         "3f1c0a52-6c1e-4a4f-9d3e-2b8f7f0e1a11",
		TimestampUTC:  "2024-03-01T12:00:00Z",
		FormatVersion: "v1",
		RowCounts:     domain.RowCounts{OrdersRaw: 6, UsersRaw: 3, OrdersClean: 6, UsersClean: 3},
		Missing: map[string]map[string]int{
			"orders": {"amount": 1},
			"users":  {"country": 0},
		},
		Duplicates: map[string]int{"order_id": 1},
	}
}

func TestRunMetaStore_SaveLoadUpdate(t *testing.T) {
	store := NewRunMetaStore(filepath.Join(t.TempDir(), "_run_meta.json"))

	require.NoError(t, store.Save(sampleMeta()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleMeta(), loaded)

	n := 6
	updated, err := store.Update(func(m *domain.RunMeta) {
		m.RowCounts.AnalyticsTable = &n
		m.Join = &domain.JoinInfo{Performed: true, Key: "user_id", Validate: "many_to_one", MatchedRows: 5}
		m.JoinMatchRate = &domain.JoinMatchRate{KeyMatchRate: 5.0 / 6, CountryMatchRate: 5.0 / 6}
	})
	require.NoError(t, err)
	assert.Equal(t, 6, *updated.RowCounts.AnalyticsTable)

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "user_id", reloaded.Join.Key)
	assert.Equal(t, 1, reloaded.Duplicates["order_id"], "earlier fields survive an update")
}

func TestRunMetaStore_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewRunMetaStore(filepath.Join(dir, "missing.json")).Load()
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	tests := []struct {
		name    string
		content string
		want    errors.ErrorType
	}{
		{name: "not json", content: "{", want: errors.ErrTypeParsing},
		{name: "missing run id", content: `{"timestamp_utc":"2024-01-01T00:00:00Z","format_version":"v1","row_counts":{"orders_raw":0,"users_raw":0,"orders_clean":0,"users_clean":0},"missing":{}}`, want: errors.ErrTypeValidation},
		{name: "negative count", content: `{"run_id":"r","timestamp_utc":"2024-01-01T00:00:00Z","format_version":"v1","row_counts":{"orders_raw":-1,"users_raw":0,"orders_clean":0,"users_clean":0},"missing":{}}`, want: errors.ErrTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewRunMetaStore(path).Load()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.want), "got %v", err)
		})
	}

	t.Run("save rejects invalid documents", func(t *testing.T) {
		meta := sampleMeta()
		meta.RunID = ""
		err := NewRunMetaStore(filepath.Join(dir, "bad.json")).Save(meta)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
		assert.NoFileExists(t, filepath.Join(dir, "bad.json"))
	})
}
