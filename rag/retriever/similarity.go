// Package retriever implements similarity search over the embedding
// side-index and document-order context expansion over the graph.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/smallnest/minirag/log"
	"github.com/smallnest/minirag/rag"
	"github.com/smallnest/minirag/rag/index"
)

// ChunkGetter is the read-side slice of the graph store the retriever
// needs: single-chunk lookup by id.
type ChunkGetter interface {
	GetChunk(ctx context.Context, id string) (*rag.SearchResult, error)
}

// SimilarityRetriever scores a query vector against the side-index with
// the raw inner product and re-fetches the winning chunks from the
// graph. Scores are NOT normalized, so longer vectors rank higher than
// better-aligned ones unless the embedder emits unit-length vectors.
type SimilarityRetriever struct {
	index  index.VectorIndex
	store  ChunkGetter
	logger log.Logger
}

// NewSimilarityRetriever creates a retriever over the given side-index
// and graph reader.
func NewSimilarityRetriever(idx index.VectorIndex, store ChunkGetter, logger log.Logger) *SimilarityRetriever {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &SimilarityRetriever{
		index:  idx,
		store:  store,
		logger: logger,
	}
}

// Search returns up to topK hits in descending score order. An absent or
// unreadable side-index degrades to zero results with a warning rather
// than failing the query. Indexed vectors whose dimension differs from
// the query's and hits whose chunk has vanished from the graph are
// skipped, so fewer than topK results may come back.
func (r *SimilarityRetriever) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]rag.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	snapshot, err := r.index.Load(ctx)
	if err != nil {
		if errors.Is(err, index.ErrIndexUnavailable) {
			r.logger.Warn("side-index unavailable, returning no results: %v", err)
			return []rag.SearchResult{}, nil
		}
		return nil, fmt.Errorf("failed to load side-index: %w", err)
	}
	if snapshot.Len() == 0 {
		return []rag.SearchResult{}, nil
	}

	type scored struct {
		position int
		score    float64
	}
	scores := make([]scored, 0, snapshot.Len())
	mismatched := 0
	for i, embedding := range snapshot.Embeddings {
		// A stored vector of a different dimension cannot be compared;
		// scoring a prefix would silently bias the ranking.
		if len(embedding) != len(queryEmbedding) {
			mismatched++
			continue
		}
		scores = append(scores, scored{position: i, score: innerProduct(queryEmbedding, embedding)})
	}
	if mismatched > 0 {
		r.logger.Warn("skipped %d of %d indexed vectors whose dimension differs from the query's %d",
			mismatched, snapshot.Len(), len(queryEmbedding))
	}
	// Ties keep snapshot order so results are reproducible.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}

	results := make([]rag.SearchResult, 0, topK)
	for _, s := range scores[:topK] {
		id := snapshot.IDs[s.position]
		chunk, err := r.store.GetChunk(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch hit %q: %w", id, err)
		}
		if chunk == nil {
			r.logger.Warn("indexed chunk %q not found in graph, skipping", id)
			continue
		}
		chunk.Score = s.score
		results = append(results, *chunk)
	}

	r.logger.Debug("similarity search returned %d of %d requested hits", len(results), topK)
	return results, nil
}

// innerProduct assumes equal-length vectors; Search filters out
// mismatches before calling it.
func innerProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
