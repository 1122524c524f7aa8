package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	"orderpulse/internal/errors"
	"orderpulse/internal/table"
	"orderpulse/pkg/contracts/domain"
)

func strPtr(s string) *string { return &s }

func cleanOrdersFrame() *table.Frame {
	return table.MustNew(
		table.NewSeries(config.ColOrderID, []string{"o1", "o2", "o3"}, nil),
		table.NewSeries(config.ColUserID, []string{"u1", "", "u2"}, []bool{true, false, true}),
		table.NewSeries(config.ColAmount, []float64{10.5, 0, 30}, []bool{true, false, true}),
		table.NewSeries(config.ColQuantity, []int64{1, 2, 0}, []bool{true, true, false}),
		table.NewSeries(config.ColCreatedAt, []string{"2024-01-01T00:00:00Z", "bad", ""}, []bool{true, true, false}),
		table.NewSeries(config.ColStatus, []string{"Paid", "REFUNDED", ""}, []bool{true, true, false}),
		table.NewSeries(config.ColStatusCln, []string{"paid", "refund", ""}, []bool{true, true, false}),
		table.NewSeries(config.ColAmount+config.MissingFlagSuffix, []bool{false, true, false}, nil),
		table.NewSeries(config.ColQuantity+config.MissingFlagSuffix, []bool{false, false, true}, nil),
		table.NewSeries("extra", []string{"x", "y", "z"}, nil),
	)
}

func TestParquet_OrdersRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "orders_clean.parquet")

	require.NoError(t, WriteParquet(path, OrderRecords(cleanOrdersFrame())))
	assert.NoFileExists(t, path+".tmp")

	records, err := ReadParquet[domain.CleanOrder](path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	f := OrdersFrame(records)
	assert.Equal(t, 3, f.Len())
	assert.False(t, f.Has("extra"))

	amount, err := table.Get[float64](f, config.ColAmount)
	require.NoError(t, err)
	assert.True(t, amount.IsNull(1))
	v, _ := amount.At(0)
	assert.Equal(t, 10.5, v)

	users, _ := table.Get[string](f, config.ColUserID)
	assert.True(t, users.IsNull(1))

	status, _ := table.Get[string](f, config.ColStatusCln)
	assert.Equal(t, []string{"paid", "refund"}, status.Present())

	flags, _ := table.Get[bool](f, config.ColQuantity+config.MissingFlagSuffix)
	assert.Equal(t, []bool{false, false, true}, flags.Present())
}

func TestParquet_AnalyticsRoundTrip(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	ms := created.UnixMilli()
	row := domain.AnalyticsRow{
		OrderID:         strPtr("o1"),
		Country:         strPtr("US"),
		CreatedAt:       &ms,
		AmountIsOutlier: true,
	}
	path := filepath.Join(t.TempDir(), "analytics_table.parquet")
	require.NoError(t, WriteParquet(path, []domain.AnalyticsRow{row, {OrderID: strPtr("o2")}}))

	records, err := ReadParquet[domain.AnalyticsRow](path)
	require.NoError(t, err)
	f := AnalyticsFrame(records)

	ts, err := table.Get[time.Time](f, config.ColCreatedAt)
	require.NoError(t, err)
	got, ok := ts.At(0)
	require.True(t, ok)
	assert.True(t, created.Equal(got))
	assert.True(t, ts.IsNull(1))

	back := AnalyticsRecords(f)
	require.Len(t, back, 2)
	assert.Equal(t, ms, *back[0].CreatedAt)
	assert.True(t, back[0].AmountIsOutlier)
	assert.Nil(t, back[1].Country)
}

func TestParquet_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.parquet")
	require.NoError(t, WriteParquet(path, UserRecords(table.Empty(config.RequiredUserColumns()...))))

	records, err := ReadParquet[domain.User](path)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, UsersFrame(records).Len())
}

func TestReadParquet_Missing(t *testing.T) {
	_, err := ReadParquet[domain.User](filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}
