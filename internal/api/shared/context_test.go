package shared

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	t.Run("upstream ID is kept", func(t *testing.T) {
		assert.Equal(t, "abc-123", GetTraceID(SetTraceID(ctx, " abc-123 ")))
	})

	t.Run("empty ID is generated", func(t *testing.T) {
		traceID := GetTraceID(SetTraceID(ctx, ""))
		assert.Len(t, traceID, 32)
		_, err := hex.DecodeString(traceID)
		assert.NoError(t, err, "Expected valid hex string")
	})

	t.Run("oversized ID is replaced", func(t *testing.T) {
		traceID := GetTraceID(SetTraceID(ctx, strings.Repeat("x", 65)))
		assert.Len(t, traceID, 32)
	})

	t.Run("wrong value type", func(t *testing.T) {
		bad := context.WithValue(ctx, TraceIDKey, 123)
		assert.Empty(t, GetTraceID(bad))
	})
}

func TestNewTraceIDUniqueness(t *testing.T) {
	t.Parallel()
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := NewTraceID()
		assert.False(t, seen[id], "Expected all trace IDs to be unique")
		seen[id] = true
	}
}

func TestUserID(t *testing.T) {
	t.Parallel()

	_, ok := UserID(context.Background())
	assert.False(t, ok)

	_, ok = UserID(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil UUID is not an identity")

	id := uuid.New()
	got, ok := UserID(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
