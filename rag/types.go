package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Document represents one acquired source-level record (for example a
// scraped page) before chunking. Source is the unique key under which the
// document is persisted in the graph.
type Document struct {
	Source   string
	Title    string
	Content  string
	Metadata map[string]any
}

// ChunkKey identifies a chunk by its owning document source and its
// positional index within that source. The index is derived from the
// window start divided by the chunker stride, so it is monotonically
// increasing per source but not necessarily contiguous when undersized
// trailing windows are dropped.
type ChunkKey struct {
	Source string
	Index  int
}

// String renders the storage form of the key: "<source>_<index>".
func (k ChunkKey) String() string {
	return fmt.Sprintf("%s_%d", k.Source, k.Index)
}

// ParseChunkKey parses the storage form of a chunk key. The split happens
// on the last underscore, so sources containing underscores round-trip as
// long as the trailing segment is the numeric index.
func ParseChunkKey(id string) (ChunkKey, error) {
	sep := strings.LastIndex(id, "_")
	if sep < 0 {
		return ChunkKey{}, fmt.Errorf("chunk id %q has no index separator", id)
	}
	index, err := strconv.Atoi(id[sep+1:])
	if err != nil {
		return ChunkKey{}, fmt.Errorf("chunk id %q has non-numeric index: %w", id, err)
	}
	if index < 0 {
		return ChunkKey{}, fmt.Errorf("chunk id %q has negative index", id)
	}
	return ChunkKey{Source: id[:sep], Index: index}, nil
}

// Chunk is a bounded, overlapping word-window extracted from a document,
// the atomic unit of retrieval. Embedding is empty until the embedding
// phase attaches one.
type Chunk struct {
	Key       ChunkKey
	Text      string
	Title     string
	Metadata  map[string]any
	Embedding []float32
}

// ID returns the storage form of the chunk's key.
func (c Chunk) ID() string {
	return c.Key.String()
}

// SearchResult is a similarity hit: the authoritative chunk fields
// re-fetched from the graph plus the similarity score.
type SearchResult struct {
	ID         string
	Text       string
	ChunkIndex int
	Score      float64
}

// QueryResult is the outcome of a full RAG query. Context carries the raw
// concatenated chunk text handed to the generator, kept for auditability.
type QueryResult struct {
	Query   string
	Answer  string
	Context string
}

// Embedder converts text into fixed-length vectors.
type Embedder interface {
	// EmbedDocument embeds a single text.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of texts, preserving order and count.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// GetDimension returns the vector dimension.
	GetDimension() int
}

// DocumentLoader acquires documents from some external source. Loaders
// tolerate individual item failures by omitting the failed item rather
// than aborting the batch.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Generator produces an answer grounded in retrieved context. Upstream
// failures are reported as a human-readable answer string with a nil
// error, so callers always receive a well-formed result; a non-nil error
// means the generator itself could not run at all.
type Generator interface {
	GenerateAnswer(ctx context.Context, query, context string) (string, error)
}

// GraphStore is the persistence surface the engine writes chunks through.
// Implementations merge-upsert by the declared unique keys (Document
// source, Chunk id) so repeated ingestion runs stay idempotent.
type GraphStore interface {
	// UpsertDocuments merges one Document node per distinct source in the
	// batch. First occurrence per source wins for title and metadata.
	UpsertDocuments(ctx context.Context, chunks []Chunk) error
	// UpsertChunks merges Chunk nodes with their PART_OF and FOLLOWS
	// edges. The owning Document must already exist.
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	// PersistEmbeddings overwrites the embedding side-index with the
	// batch's vectors. Each call must carry the complete searchable set.
	PersistEmbeddings(ctx context.Context, chunks []Chunk) error
	// GetChunk fetches a single chunk by id, (nil, nil) when absent.
	GetChunk(ctx context.Context, id string) (*SearchResult, error)
}

// Searcher scores a query vector against the side-index and returns up to
// topK hits in descending score order.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]SearchResult, error)
}

// ContextExpander turns an ordered set of hits into the final context
// string, optionally pulling in document-order neighbor chunks.
type ContextExpander interface {
	Expand(ctx context.Context, hits []SearchResult, includeNeighbors bool) (string, error)
}
