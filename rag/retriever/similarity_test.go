package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smallnest/minirag/rag"
	"github.com/smallnest/minirag/rag/index"
)

// memoryIndex serves a fixed snapshot, or a canned error.
type memoryIndex struct {
	snapshot *index.Snapshot
	err      error
}

func (m *memoryIndex) Persist(ctx context.Context, snapshot *index.Snapshot) error {
	m.snapshot = snapshot
	return nil
}

func (m *memoryIndex) Load(ctx context.Context) (*index.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func (m *memoryIndex) Close() error { return nil }

// mapStore resolves chunk ids from a fixed map.
type mapStore struct {
	chunks map[string]string
}

func (s *mapStore) GetChunk(ctx context.Context, id string) (*rag.SearchResult, error) {
	text, ok := s.chunks[id]
	if !ok {
		return nil, nil
	}
	key, err := rag.ParseChunkKey(id)
	if err != nil {
		return nil, err
	}
	return &rag.SearchResult{ID: id, Text: text, ChunkIndex: key.Index}, nil
}

func storeFor(ids ...string) *mapStore {
	chunks := make(map[string]string, len(ids))
	for _, id := range ids {
		chunks[id] = "text of " + id
	}
	return &mapStore{chunks: chunks}
}

func TestSimilaritySearch(t *testing.T) {
	ctx := context.Background()

	snapshot := &index.Snapshot{
		IDs: []string{"a_0", "a_1", "a_2"},
		Embeddings: [][]float32{
			{1, 0},
			{0, 1},
			{0.5, 0.5},
		},
	}

	t.Run("Descending Scores", func(t *testing.T) {
		r := NewSimilarityRetriever(&memoryIndex{snapshot: snapshot}, storeFor("a_0", "a_1", "a_2"), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 3)
		assert.NoError(t, err)
		assert.Len(t, hits, 3)
		assert.Equal(t, "a_0", hits[0].ID)
		assert.Equal(t, "a_2", hits[1].ID)
		assert.Equal(t, "a_1", hits[2].ID)
		assert.True(t, hits[0].Score >= hits[1].Score)
		assert.True(t, hits[1].Score >= hits[2].Score)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("TopK Caps Results", func(t *testing.T) {
		r := NewSimilarityRetriever(&memoryIndex{snapshot: snapshot}, storeFor("a_0", "a_1", "a_2"), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 1)
		assert.NoError(t, err)
		assert.Len(t, hits, 1)
		assert.Equal(t, "a_0", hits[0].ID)
	})

	t.Run("TopK Above Corpus Size", func(t *testing.T) {
		r := NewSimilarityRetriever(&memoryIndex{snapshot: snapshot}, storeFor("a_0", "a_1", "a_2"), nil)

		hits, err := r.Search(ctx, []float32{0, 1}, 10)
		assert.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("Unavailable Index Degrades To Empty", func(t *testing.T) {
		idx := &memoryIndex{err: fmt.Errorf("%w: no snapshot", index.ErrIndexUnavailable)}
		r := NewSimilarityRetriever(idx, storeFor(), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 3)
		assert.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Other Index Errors Surface", func(t *testing.T) {
		idx := &memoryIndex{err: errors.New("disk on fire")}
		r := NewSimilarityRetriever(idx, storeFor(), nil)

		_, err := r.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorContains(t, err, "disk on fire")
	})

	t.Run("Missing Graph Chunk Skipped", func(t *testing.T) {
		// a_0 is indexed but no longer in the graph.
		r := NewSimilarityRetriever(&memoryIndex{snapshot: snapshot}, storeFor("a_1", "a_2"), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 2)
		assert.NoError(t, err)
		assert.Len(t, hits, 1)
		assert.Equal(t, "a_2", hits[0].ID)
	})

	t.Run("Mismatched Dimensions Skipped", func(t *testing.T) {
		// a_1 was indexed by a different model and has the wrong width;
		// it must not outrank the well-formed vectors on a prefix score.
		mixed := &index.Snapshot{
			IDs: []string{"a_0", "a_1", "a_2"},
			Embeddings: [][]float32{
				{0.5, 0.5},
				{9, 9, 9},
				{1, 0},
			},
		}
		r := NewSimilarityRetriever(&memoryIndex{snapshot: mixed}, storeFor("a_0", "a_1", "a_2"), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 3)
		assert.NoError(t, err)
		assert.Len(t, hits, 2)
		assert.Equal(t, "a_2", hits[0].ID)
		assert.Equal(t, "a_0", hits[1].ID)
	})

	t.Run("Empty Snapshot", func(t *testing.T) {
		r := NewSimilarityRetriever(&memoryIndex{snapshot: &index.Snapshot{}}, storeFor(), nil)

		hits, err := r.Search(ctx, []float32{1, 0}, 3)
		assert.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Invalid TopK", func(t *testing.T) {
		r := NewSimilarityRetriever(&memoryIndex{snapshot: snapshot}, storeFor(), nil)
		_, err := r.Search(ctx, []float32{1, 0}, 0)
		assert.Error(t, err)
	})
}

func TestInnerProduct(t *testing.T) {
	assert.Equal(t, 0.0, innerProduct([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, 1.0, innerProduct([]float32{1, 0}, []float32{1, 0}))
	assert.Equal(t, 2.0, innerProduct([]float32{1, 1}, []float32{1, 1}))
}
