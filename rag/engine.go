package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/minirag/log"
)

// EngineConfig configures a RAG engine. Component fields are required
// unless noted; scalar fields fall back to the defaults from
// DefaultEngineConfig when zero.
type EngineConfig struct {
	// Chunking configuration
	ChunkSize    int // words per window, default 500
	ChunkOverlap int // overlapping words between windows, default 50

	// Retrieval configuration
	TopK            int  // chunks retrieved per query, default 3
	ExpandNeighbors bool // include document-order neighbor chunks

	// EmbeddingModel names the registry entry used for both chunk and
	// query embedding.
	EmbeddingModel string

	// Components
	Registry  *ModelRegistry
	Store     GraphStore
	Searcher  Searcher
	Expander  ContextExpander
	Generator Generator

	// LoaderFactory builds the acquisition collaborator for IngestURLs.
	// Optional; IngestDocuments works without it.
	LoaderFactory func(urls []string) DocumentLoader

	Logger log.Logger
}

// DefaultEngineConfig returns the default scalar configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		ChunkSize:       500,
		ChunkOverlap:    50,
		TopK:            3,
		ExpandNeighbors: true,
	}
}

// Engine composes the ingestion pipeline (acquire, chunk, embed, persist)
// and the query pipeline (embed, search, expand, generate).
//
// Both pipelines run as a single logical worker: stages execute
// sequentially within one call. Ingestion is at-least-once, not atomic:
// a stage failure aborts the call but leaves earlier graph writes
// committed. Concurrent ingestions race on the side-index overwrite and
// must be serialized by the caller.
type Engine struct {
	config  *EngineConfig
	chunker *Chunker
	logger  log.Logger
}

// NewEngine validates the configuration and builds an Engine.
func NewEngine(config *EngineConfig) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	defaults := DefaultEngineConfig()
	if config.ChunkSize == 0 {
		config.ChunkSize = defaults.ChunkSize
		if config.ChunkOverlap == 0 {
			config.ChunkOverlap = defaults.ChunkOverlap
		}
	}
	if config.TopK == 0 {
		config.TopK = defaults.TopK
	}
	if config.Logger == nil {
		config.Logger = log.GetDefaultLogger()
	}

	if config.Store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if config.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}

	chunker, err := NewChunker(config.ChunkSize, config.ChunkOverlap, config.Logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:  config,
		chunker: chunker,
		logger:  config.Logger,
	}, nil
}

// IngestURLs acquires the given URLs through the configured loader
// factory and ingests the resulting documents.
func (e *Engine) IngestURLs(ctx context.Context, urls []string) error {
	if e.config.LoaderFactory == nil {
		return fmt.Errorf("no loader factory configured")
	}
	return e.IngestDocuments(ctx, e.config.LoaderFactory(urls))
}

// IngestDocuments runs the full ingestion pipeline over whatever the
// loader produces. Any stage failing aborts the call; chunks already
// written to the graph before a later-stage failure remain committed.
func (e *Engine) IngestDocuments(ctx context.Context, loader DocumentLoader) error {
	if loader == nil {
		return fmt.Errorf("document loader is required")
	}

	documents, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("acquisition failed: %w", err)
	}
	if len(documents) == 0 {
		return ErrNoDocuments
	}
	e.logger.Info("acquired %d documents", len(documents))

	return e.Ingest(ctx, documents)
}

// Ingest chunks, embeds, and persists a batch of already-acquired
// documents.
func (e *Engine) Ingest(ctx context.Context, documents []Document) error {
	runID := uuid.NewString()

	chunks := e.chunker.Chunk(documents)
	if len(chunks) == 0 {
		e.logger.Warn("ingest %s: no chunks produced from %d documents", runID, len(documents))
		return nil
	}
	e.logger.Info("ingest %s: created %d chunks from %d documents", runID, len(chunks), len(documents))

	embedder, err := e.config.Registry.Get(e.config.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", runID, err)
	}
	embedded, err := EmbedChunks(ctx, embedder, chunks)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", runID, err)
	}

	if err := e.config.Store.UpsertDocuments(ctx, embedded); err != nil {
		return fmt.Errorf("ingest %s: %w", runID, err)
	}
	if err := e.config.Store.UpsertChunks(ctx, embedded); err != nil {
		return fmt.Errorf("ingest %s: %w", runID, err)
	}
	if err := e.config.Store.PersistEmbeddings(ctx, embedded); err != nil {
		return fmt.Errorf("ingest %s: %w", runID, err)
	}

	e.logger.Info("ingest %s: persisted %d chunks to graph", runID, len(embedded))
	return nil
}

// Query embeds the question, retrieves the most similar chunks, expands
// the context, and generates an answer. An unavailable side-index
// degrades to an empty context and whatever the generator answers for it;
// only a missing component or a query-embedding failure returns an error.
func (e *Engine) Query(ctx context.Context, query string, topK int) (*QueryResult, error) {
	if e.config.Searcher == nil || e.config.Expander == nil || e.config.Generator == nil {
		return nil, fmt.Errorf("searcher, expander and generator are required for queries")
	}
	if topK <= 0 {
		topK = e.config.TopK
	}

	embedder, err := e.config.Registry.Get(e.config.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	queryEmbedding, err := embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.config.Searcher.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	contextText, err := e.config.Expander.Expand(ctx, hits, e.config.ExpandNeighbors)
	if err != nil {
		return nil, fmt.Errorf("context expansion failed: %w", err)
	}
	if contextText == "" {
		e.logger.Warn("no context retrieved for query %q", query)
	}

	answer, err := e.config.Generator.GenerateAnswer(ctx, query, contextText)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &QueryResult{
		Query:   query,
		Answer:  answer,
		Context: contextText,
	}, nil
}
