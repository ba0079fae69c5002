package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	documents  []Chunk
	chunks     []Chunk
	embeddings []Chunk
	failOn     string
}

func (s *fakeStore) UpsertDocuments(ctx context.Context, chunks []Chunk) error {
	if s.failOn == "documents" {
		return errors.New("document write failed")
	}
	s.documents = append(s.documents, chunks...)
	return nil
}

func (s *fakeStore) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	if s.failOn == "chunks" {
		return errors.New("chunk write failed")
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *fakeStore) PersistEmbeddings(ctx context.Context, chunks []Chunk) error {
	if s.failOn == "embeddings" {
		return errors.New("index write failed")
	}
	s.embeddings = append(s.embeddings, chunks...)
	return nil
}

func (s *fakeStore) GetChunk(ctx context.Context, id string) (*SearchResult, error) {
	for _, chunk := range s.chunks {
		if chunk.ID() == id {
			return &SearchResult{ID: id, Text: chunk.Text, ChunkIndex: chunk.Key.Index}, nil
		}
	}
	return nil, nil
}

type fakeSearcher struct {
	hits     []SearchResult
	lastTopK int
}

func (s *fakeSearcher) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]SearchResult, error) {
	s.lastTopK = topK
	return s.hits, nil
}

type fakeExpander struct {
	lastNeighbors bool
}

func (e *fakeExpander) Expand(ctx context.Context, hits []SearchResult, includeNeighbors bool) (string, error) {
	e.lastNeighbors = includeNeighbors
	lines := make([]string, len(hits))
	for i, hit := range hits {
		lines[i] = hit.Text
	}
	return strings.Join(lines, "\n\n"), nil
}

type fakeGenerator struct{}

func (fakeGenerator) GenerateAnswer(ctx context.Context, query, context_ string) (string, error) {
	return fmt.Sprintf("answer to %q from %d context bytes", query, len(context_)), nil
}

type listLoader struct {
	docs []Document
	err  error
}

func (l *listLoader) Load(ctx context.Context) ([]Document, error) {
	return l.docs, l.err
}

func testConfig(store GraphStore) *EngineConfig {
	registry := NewModelRegistry(func(modelName string) (Embedder, error) {
		return NewMockEmbedder(32), nil
	})
	config := DefaultEngineConfig()
	config.ChunkSize = 100
	config.ChunkOverlap = 20
	config.EmbeddingModel = "mock"
	config.Registry = registry
	config.Store = store
	return config
}

func longDoc(source string, n int) Document {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return Document{Source: source, Title: "T", Content: strings.Join(parts, " ")}
}

func TestNewEngine(t *testing.T) {
	t.Run("Missing Store", func(t *testing.T) {
		config := testConfig(nil)
		config.Store = nil
		_, err := NewEngine(config)
		assert.Error(t, err)
	})

	t.Run("Missing Registry", func(t *testing.T) {
		config := testConfig(&fakeStore{})
		config.Registry = nil
		_, err := NewEngine(config)
		assert.Error(t, err)
	})

	t.Run("Missing Model Name", func(t *testing.T) {
		config := testConfig(&fakeStore{})
		config.EmbeddingModel = ""
		_, err := NewEngine(config)
		assert.Error(t, err)
	})

	t.Run("Invalid Chunking", func(t *testing.T) {
		config := testConfig(&fakeStore{})
		config.ChunkSize = 10
		config.ChunkOverlap = 10
		_, err := NewEngine(config)
		assert.True(t, errors.Is(err, ErrInvalidChunking))
	})
}

func TestEngineIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("Full Pipeline", func(t *testing.T) {
		store := &fakeStore{}
		engine, err := NewEngine(testConfig(store))
		assert.NoError(t, err)

		err = engine.IngestDocuments(ctx, &listLoader{docs: []Document{longDoc("a", 150)}})
		assert.NoError(t, err)

		assert.NotEmpty(t, store.chunks)
		assert.Equal(t, len(store.chunks), len(store.embeddings))
		for _, chunk := range store.embeddings {
			assert.Len(t, chunk.Embedding, 32)
		}
	})

	t.Run("No Documents", func(t *testing.T) {
		engine, err := NewEngine(testConfig(&fakeStore{}))
		assert.NoError(t, err)

		err = engine.IngestDocuments(ctx, &listLoader{})
		assert.True(t, errors.Is(err, ErrNoDocuments))
	})

	t.Run("Loader Failure", func(t *testing.T) {
		engine, err := NewEngine(testConfig(&fakeStore{}))
		assert.NoError(t, err)

		err = engine.IngestDocuments(ctx, &listLoader{err: errors.New("network down")})
		assert.ErrorContains(t, err, "acquisition failed")
	})

	t.Run("Store Failure Aborts", func(t *testing.T) {
		store := &fakeStore{failOn: "chunks"}
		engine, err := NewEngine(testConfig(store))
		assert.NoError(t, err)

		err = engine.Ingest(ctx, []Document{longDoc("a", 150)})
		assert.ErrorContains(t, err, "chunk write failed")
		assert.Empty(t, store.embeddings)
	})

	t.Run("No Loader Factory", func(t *testing.T) {
		engine, err := NewEngine(testConfig(&fakeStore{}))
		assert.NoError(t, err)

		err = engine.IngestURLs(ctx, []string{"https://example.com"})
		assert.Error(t, err)
	})
}

func TestEngineQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("Full Pipeline", func(t *testing.T) {
		searcher := &fakeSearcher{hits: []SearchResult{
			{ID: "a_0", Text: "first", ChunkIndex: 0, Score: 0.9},
			{ID: "a_1", Text: "second", ChunkIndex: 1, Score: 0.5},
		}}
		expander := &fakeExpander{}

		config := testConfig(&fakeStore{})
		config.Searcher = searcher
		config.Expander = expander
		config.Generator = fakeGenerator{}
		engine, err := NewEngine(config)
		assert.NoError(t, err)

		result, err := engine.Query(ctx, "what is first?", 0)
		assert.NoError(t, err)
		assert.Equal(t, "what is first?", result.Query)
		assert.Contains(t, result.Context, "first")
		assert.Contains(t, result.Context, "second")
		assert.NotEmpty(t, result.Answer)

		// topK 0 falls back to the configured default
		assert.Equal(t, 3, searcher.lastTopK)
		assert.True(t, expander.lastNeighbors)
	})

	t.Run("Explicit TopK", func(t *testing.T) {
		searcher := &fakeSearcher{}
		config := testConfig(&fakeStore{})
		config.Searcher = searcher
		config.Expander = &fakeExpander{}
		config.Generator = fakeGenerator{}
		engine, err := NewEngine(config)
		assert.NoError(t, err)

		_, err = engine.Query(ctx, "q", 7)
		assert.NoError(t, err)
		assert.Equal(t, 7, searcher.lastTopK)
	})

	t.Run("Missing Query Components", func(t *testing.T) {
		engine, err := NewEngine(testConfig(&fakeStore{}))
		assert.NoError(t, err)

		_, err = engine.Query(ctx, "q", 3)
		assert.Error(t, err)
	})
}
