package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSqliteIndex(t *testing.T) *SqliteIndex {
	t.Helper()
	idx, err := NewSqliteIndex(SqliteOptions{Path: filepath.Join(t.TempDir(), "emb.db")})
	assert.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSqliteIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("Round Trip", func(t *testing.T) {
		idx := newTestSqliteIndex(t)

		assert.NoError(t, idx.Persist(ctx, testSnapshot()))
		loaded, err := idx.Load(ctx)
		assert.NoError(t, err)
		assert.Equal(t, testSnapshot(), loaded)
	})

	t.Run("Persist Overwrites", func(t *testing.T) {
		idx := newTestSqliteIndex(t)

		assert.NoError(t, idx.Persist(ctx, testSnapshot()))
		second := &Snapshot{IDs: []string{"z_0"}, Embeddings: [][]float32{{0.1, 0.2}}}
		assert.NoError(t, idx.Persist(ctx, second))

		loaded, err := idx.Load(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"z_0"}, loaded.IDs)
	})

	t.Run("Empty Table Loads Empty Snapshot", func(t *testing.T) {
		idx := newTestSqliteIndex(t)

		loaded, err := idx.Load(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, loaded.Len())
	})

	t.Run("Invalid Snapshot Rejected", func(t *testing.T) {
		idx := newTestSqliteIndex(t)
		bad := &Snapshot{IDs: []string{"a_0", "a_1"}, Embeddings: [][]float32{{1}}}
		assert.Error(t, idx.Persist(ctx, bad))
	})

	t.Run("Closed Database Unavailable", func(t *testing.T) {
		idx, err := NewSqliteIndex(SqliteOptions{Path: filepath.Join(t.TempDir(), "emb.db")})
		assert.NoError(t, err)
		assert.NoError(t, idx.Close())

		_, err = idx.Load(ctx)
		assert.True(t, errors.Is(err, ErrIndexUnavailable))
	})
}
