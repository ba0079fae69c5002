package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/minirag/log"
	"github.com/smallnest/minirag/rag"
)

// Expander assembles the context string from search hits, optionally
// pulling in the document-order neighbors (chunk_index plus and minus
// one) of every hit from the graph. Each chunk appears at most once even
// when hits overlap or are each other's neighbors.
type Expander struct {
	store  ChunkGetter
	logger log.Logger
}

// NewExpander creates an expander over the given graph reader.
func NewExpander(store ChunkGetter, logger log.Logger) *Expander {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Expander{
		store:  store,
		logger: logger,
	}
}

// Expand renders each chunk as a "[Chunk <index>] <text>" line and joins
// the lines with blank separators. Each hit comes first, immediately
// followed by its unseen neighbors in previous-then-next order. A hit
// whose id does not parse as a chunk key contributes its own text but no
// neighbors.
func (e *Expander) Expand(ctx context.Context, hits []rag.SearchResult, includeNeighbors bool) (string, error) {
	seen := make(map[string]bool)
	var lines []string

	appendChunk := func(id string, chunkIndex int, text string) {
		if seen[id] {
			return
		}
		seen[id] = true
		lines = append(lines, fmt.Sprintf("[Chunk %d] %s", chunkIndex, text))
	}

	for _, hit := range hits {
		appendChunk(hit.ID, hit.ChunkIndex, hit.Text)
		if !includeNeighbors {
			continue
		}

		key, err := rag.ParseChunkKey(hit.ID)
		if err != nil {
			e.logger.Warn("cannot expand neighbors of %q: %v", hit.ID, err)
			continue
		}

		if key.Index > 0 {
			prevKey := rag.ChunkKey{Source: key.Source, Index: key.Index - 1}
			if prev, err := e.store.GetChunk(ctx, prevKey.String()); err != nil {
				return "", fmt.Errorf("failed to fetch neighbor %q: %w", prevKey, err)
			} else if prev != nil {
				appendChunk(prev.ID, prev.ChunkIndex, prev.Text)
			}
		}

		nextKey := rag.ChunkKey{Source: key.Source, Index: key.Index + 1}
		if next, err := e.store.GetChunk(ctx, nextKey.String()); err != nil {
			return "", fmt.Errorf("failed to fetch neighbor %q: %w", nextKey, err)
		} else if next != nil {
			appendChunk(next.ID, next.ChunkIndex, next.Text)
		}
	}

	return strings.Join(lines, "\n\n"), nil
}
