package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewEmptyTableError("orders"),
			wantMessage: "[EMPTY] orders is empty (0 rows)",
		},
		{
			name:        "error with cause",
			appError:    NewStorageError("write parquet", fmt.Errorf("disk full")),
			wantMessage: "[STORAGE] write parquet: disk full",
		},
		{
			name:        "missing columns names both sides",
			appError:    NewMissingColumnsError("orders", []string{"amount"}, []string{"order_id", "user_id"}),
			wantMessage: "[SCHEMA] orders: missing required columns: [amount]. Found: [order_id, user_id]",
		},
		{
			name:        "cardinality names key and value",
			appError:    NewCardinalityError("user_id", "u1", 2),
			wantMessage: `[CARDINALITY] join key "user_id" is not unique: value "u1" appears 2 times`,
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("data/raw/orders.csv"),
			wantMessage: "[NOT_FOUND] data/raw/orders.csv not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewParsingError("bad input", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppValidationError("bad").WithContext("field", "amount").WithContext("row", 3)

	require.Len(t, err.Context, 2)
	assert.Equal(t, "amount", err.Context["field"])
	assert.Equal(t, 3, err.Context["row"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("clean step: %w", NewCardinalityError("user_id", "u1", 2))

	assert.True(t, IsType(wrapped, ErrTypeCardinality))
	assert.False(t, IsType(wrapped, ErrTypeSchema))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeCardinality))
	assert.False(t, IsType(nil, ErrTypeCardinality))
}
