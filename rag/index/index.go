// Package index provides the embedding side-index: a flat store of chunk
// ids and their vectors kept outside the graph database for fast bulk
// similarity scans.
//
// Every backend implements wholesale-overwrite semantics: Persist
// replaces the entire snapshot, it never appends. Each ingestion call
// must therefore carry the complete set of chunks it wants searchable:
// chunks absent from the latest snapshot become unsearchable even though
// their graph nodes remain. Concurrent writers race on the overwrite and
// must be serialized by the caller.
package index

import (
	"context"
	"errors"
	"fmt"
)

// ErrIndexUnavailable reports a side-index that is missing, unreadable,
// or corrupt. Search layers treat this as "no results", not a failure.
var ErrIndexUnavailable = errors.New("embedding side-index unavailable")

// Snapshot is the persisted form of the side-index: two parallel arrays,
// ids[i] naming the chunk that owns embeddings[i]. The id set must be a
// subset of the Chunk ids persisted in the graph; an id with no graph
// node is a corruption state that search layers skip over.
type Snapshot struct {
	IDs        []string    `json:"ids"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Validate checks the parallel-array invariant.
func (s *Snapshot) Validate() error {
	if len(s.IDs) != len(s.Embeddings) {
		return fmt.Errorf("snapshot has %d ids but %d embeddings", len(s.IDs), len(s.Embeddings))
	}
	return nil
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return len(s.IDs)
}

// VectorIndex persists and loads side-index snapshots.
type VectorIndex interface {
	// Persist replaces the stored snapshot wholesale. NOT additive: the
	// previous snapshot is destroyed. Serialize concurrent callers.
	Persist(ctx context.Context, snapshot *Snapshot) error
	// Load returns the current snapshot, wrapping absence or corruption
	// in ErrIndexUnavailable.
	Load(ctx context.Context) (*Snapshot, error)
	// Close releases backend resources.
	Close() error
}
