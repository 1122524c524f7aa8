package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
)

func rawOrders(t *testing.T, amounts, quantities []string) *table.Frame {
	t.Helper()
	n := len(amounts)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "o"
	}
	f, err := table.New(
		table.NewSeries(config.ColOrderID, ids, nil),
		table.NewSeries(config.ColAmount, amounts, nil),
		table.NewSeries(config.ColQuantity, quantities, nil),
	)
	require.NoError(t, err)
	return f
}

func TestEnforceOrderSchema(t *testing.T) {
	f := rawOrders(t,
		[]string{"10.5", "abc", "1e2", "NaN"},
		[]string{"1", "2.0", "2.5", "x"},
	)

	out, stats, err := EnforceOrderSchema(f)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())

	amount, err := table.Get[float64](out, config.ColAmount)
	require.NoError(t, err)
	v, ok := amount.At(0)
	assert.True(t, ok)
	assert.Equal(t, 10.5, v)
	assert.True(t, amount.IsNull(1))
	v, _ = amount.At(2)
	assert.Equal(t, 100.0, v)
	assert.True(t, amount.IsNull(3))

	qty, err := table.Get[int64](out, config.ColQuantity)
	require.NoError(t, err)
	n, _ := qty.At(1)
	assert.Equal(t, int64(2), n)
	assert.True(t, qty.IsNull(2))
	assert.True(t, qty.IsNull(3))

	assert.Equal(t, 2, stats[config.ColAmount])
	assert.Equal(t, 2, stats[config.ColQuantity])
	assert.Equal(t, 4, stats.Total())
}

func TestEnforceOrderSchema_NullsAreNotCoercions(t *testing.T) {
	f := table.MustNew(table.NewSeries(config.ColAmount, []string{"", "5"}, []bool{false, true}))

	_, stats, err := EnforceOrderSchema(f)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[config.ColAmount])
}

func TestAddMissingFlags(t *testing.T) {
	f := table.MustNew(table.NewSeries(config.ColAmount, []float64{1, 0}, []bool{true, false}))

	out, err := AddMissingFlags(f, config.ColAmount, config.ColQuantity)
	require.NoError(t, err)
	assert.False(t, out.Has(config.ColQuantity+config.MissingFlagSuffix))

	flags, err := table.Get[bool](out, config.ColAmount+config.MissingFlagSuffix)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, flags.Present())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{" -3 ", -3, true},
		{"inf", 0, false},
		{"NaN", 0, false},
		{"$5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
