package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
)

func defaultNormalizer(t *testing.T) *StatusNormalizer {
	t.Helper()
	n, err := NewStatusNormalizer(config.DefaultStatusMapping())
	require.NoError(t, err)
	return n
}

func TestStatusNormalizer_Normalize(t *testing.T) {
	n := defaultNormalizer(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"Paid", "paid"},
		{" PAID ", "paid"},
		{"Refunded", "refund"},
		{"returned", "refund"},
		{"Cancelled", "cancel"},
		{"canceled", "cancel"},
		{"Pending", "pending"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestStatusNormalizer_Idempotent(t *testing.T) {
	n := defaultNormalizer(t)
	for _, raw := range []string{"Paid", "REFUNDED", "canceled", " something else ", ""} {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(once), raw)
	}
}

func TestNewStatusNormalizer_RejectsUnstableMapping(t *testing.T) {
	_, err := NewStatusNormalizer(StatusMapping{"refunded": "refund", "refund": "returned"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not stable")

	_, err = NewStatusNormalizer(StatusMapping{" ": "paid"})
	assert.Error(t, err)
}

func TestNormalizeColumn(t *testing.T) {
	n := defaultNormalizer(t)
	f := table.MustNew(table.NewSeries(config.ColStatus,
		[]string{"Paid", "", "Refunded", "Pending", "pending"},
		[]bool{true, false, true, true, true}))

	out, unknown, err := n.NormalizeColumn(f, config.ColStatus, config.ColStatusCln)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, unknown)

	clean, err := table.Get[string](out, config.ColStatusCln)
	require.NoError(t, err)
	assert.True(t, clean.IsNull(1))
	assert.Equal(t, []string{"paid", "refund", "pending", "pending"}, clean.Present())

	raw, err := table.Get[string](out, config.ColStatus)
	require.NoError(t, err)
	v, _ := raw.At(0)
	assert.Equal(t, "Paid", v)
}
