package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed, "replay must not claim again")

		processed, err := store.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("unknown event is not processed", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "evt-unknown")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("expired claim can be re-claimed", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "evt-short", time.Millisecond)
		require.NoError(t, err)
		assert.True(t, claimed)

		time.Sleep(5 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "evt-short")
		require.NoError(t, err)
		assert.False(t, processed)

		claimed, err = store.MarkProcessed(ctx, "evt-short", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}
