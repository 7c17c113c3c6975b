package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantNotFound  bool
		wantDuplicate bool
		wantConflict  bool
	}{
		{name: "nil error"},
		{name: "generic error", err: errors.New("boom")},
		{name: "ErrNotFound", err: ErrNotFound, wantNotFound: true},
		{name: "ErrMemoNotFound", err: ErrMemoNotFound, wantNotFound: true},
		{name: "wrapped ErrMemoNotFound", err: fmt.Errorf("get memo: %w", ErrMemoNotFound), wantNotFound: true},
		{name: "ErrMemoExists", err: ErrMemoExists, wantDuplicate: true},
		{name: "ErrVersionConflict", err: fmt.Errorf("update: %w", ErrVersionConflict), wantConflict: true},
		{
			name:         "store error wrapping not found",
			err:          NewStoreError("memo", "delete", "no rows", ErrMemoNotFound),
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantNotFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.wantDuplicate, IsDuplicateError(tt.err))
			assert.Equal(t, tt.wantConflict, IsConflictError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection reset")
	err := NewStoreError("memo", "update", "write failed", inner)
	assert.Equal(t, "update operation on memo failed: write failed: connection reset", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewStoreError("memo", "create", "invalid", nil)
	assert.Equal(t, "create operation on memo failed: invalid", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestMemoErrorMessages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "entity not found: memo", ErrMemoNotFound.Error())
	assert.Equal(t, "entity already exists: memo", ErrMemoExists.Error())
}
