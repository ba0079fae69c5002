// Package graphstore persists Documents and Chunks into a
// FalkorDB-compatible graph database over the GRAPH.QUERY protocol.
//
// The graph model is
//
//	(:Chunk {id, text, chunk_index})-[:PART_OF]->(:Document {source, title, ...})
//	(:Chunk)-[:FOLLOWS]->(:Chunk)
//
// where FOLLOWS points at the chunk whose chunk_index is exactly one less
// within the same source. All writes use MERGE keyed on the unique
// properties (Chunk.id, Document.source), so re-running an ingestion
// never duplicates nodes or edges.
package graphstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/minirag/log"
	"github.com/smallnest/minirag/rag"
	"github.com/smallnest/minirag/rag/index"
)

// Options configuration for the graph store connection.
type Options struct {
	Addr     string // host:port of the FalkorDB-compatible server
	Username string
	Password string
	DB       int
	Graph    string // graph name, default "minirag"
	Logger   log.Logger
}

// Store is the sole writer of Document and Chunk entities. It also owns
// the embedding side-index; search layers only ever read it.
type Store struct {
	opts   Options
	client redis.UniversalClient
	graph  Querier
	index  index.VectorIndex
	logger log.Logger
}

// NewStore creates a store over the given connection options and
// side-index. Call Connect before using it.
func NewStore(opts Options, idx index.VectorIndex) *Store {
	if opts.Graph == "" {
		opts.Graph = "minirag"
	}
	if opts.Logger == nil {
		opts.Logger = log.GetDefaultLogger()
	}
	return &Store{
		opts:   opts,
		index:  idx,
		logger: opts.Logger,
	}
}

// NewStoreWithQuerier creates a connected store over an existing Cypher
// transport. Useful for testing with fakes.
func NewStoreWithQuerier(q Querier, idx index.VectorIndex, logger log.Logger) *Store {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Store{
		graph:  q,
		index:  idx,
		logger: logger,
	}
}

// Connect dials the server, verifies it is reachable, and ensures the
// schema. Failures wrap rag.ErrNotConnected; the store stays usable for
// a retry once connectivity is restored.
func (s *Store) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     s.opts.Addr,
		Username: s.opts.Username,
		Password: s.opts.Password,
		DB:       s.opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("%w: %v", rag.ErrNotConnected, err)
	}

	s.client = client
	s.graph = NewGraph(s.opts.Graph, client)
	s.logger.Info("connected to graph database at %s", s.opts.Addr)

	return s.EnsureSchema(ctx)
}

// Close releases the connection and the owned side-index.
func (s *Store) Close() error {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

var schemaStatements = []string{
	"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Chunk) REQUIRE c.id IS UNIQUE",
	"CREATE CONSTRAINT IF NOT EXISTS FOR (d:Document) REQUIRE d.source IS UNIQUE",
	"CREATE INDEX IF NOT EXISTS FOR (c:Chunk) ON (c.text)",
	"CREATE INDEX IF NOT EXISTS FOR (d:Document) ON (d.title)",
}

// EnsureSchema idempotently creates the uniqueness constraints on
// Chunk.id and Document.source plus lookup indexes on Chunk.text and
// Document.title. "Already exists" responses count as success since
// every ingestion run calls this.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.graph == nil {
		return rag.ErrNotConnected
	}

	for _, stmt := range schemaStatements {
		if _, err := s.graph.Query(ctx, stmt, nil); err != nil {
			if isAlreadyExists(err) {
				continue
			}
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	s.logger.Debug("graph schema ensured")
	return nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already indexed") ||
		strings.Contains(msg, "constraint already")
}

// UpsertDocuments merges one Document node per distinct source in the
// batch. The first chunk seen for a source wins for title and metadata;
// only scalar metadata values are persisted, the rest are dropped.
// Metadata keys whose sanitized property name collides with an earlier
// key (or with the reserved source/title properties) are dropped with a
// warning; keys are walked in sorted order so the survivor is stable.
func (s *Store) UpsertDocuments(ctx context.Context, chunks []rag.Chunk) error {
	if s.graph == nil {
		return rag.ErrNotConnected
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		source := chunk.Key.Source
		if seen[source] {
			continue
		}
		seen[source] = true

		params := map[string]any{
			"source": source,
			"title":  chunk.Title,
		}
		sets := []string{"d.title = $title"}

		keys := make([]string, 0, len(chunk.Metadata))
		for key := range chunk.Metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		used := map[string]bool{"source": true, "title": true}
		for _, key := range keys {
			value := chunk.Metadata[key]
			prop := sanitizeProperty(key)
			if prop == "" || !isScalar(value) {
				continue
			}
			if used[prop] {
				s.logger.Warn("dropping metadata key %q of %q: property %q already set", key, source, prop)
				continue
			}
			used[prop] = true
			params[prop] = value
			sets = append(sets, fmt.Sprintf("d.%s = $%s", prop, prop))
		}

		cypher := "MERGE (d:Document {source: $source}) SET " + strings.Join(sets, ", ")
		if _, err := s.graph.Query(ctx, cypher, params); err != nil {
			return fmt.Errorf("failed to upsert document %q: %w", source, err)
		}
	}

	s.logger.Debug("upserted %d documents", len(seen))
	return nil
}

// UpsertChunks merges each chunk node and its edges. The owning Document
// must already exist (UpsertDocuments runs first), otherwise the call
// fails with rag.ErrDocumentNotFound rather than silently dropping the
// PART_OF edge. A FOLLOWS edge is merged to the chunk at chunk_index-1
// of the same source when, and only when, that chunk is already
// persisted.
func (s *Store) UpsertChunks(ctx context.Context, chunks []rag.Chunk) error {
	if s.graph == nil {
		return rag.ErrNotConnected
	}

	// Verify referential integrity up front so no partial batch is
	// written against a missing Document.
	verified := make(map[string]bool)
	for _, chunk := range chunks {
		source := chunk.Key.Source
		if verified[source] {
			continue
		}
		qr, err := s.graph.Query(ctx, "MATCH (d:Document {source: $source}) RETURN d.source", map[string]any{"source": source})
		if err != nil {
			return fmt.Errorf("failed to verify document %q: %w", source, err)
		}
		if len(qr.Results) == 0 {
			return fmt.Errorf("%w: %q", rag.ErrDocumentNotFound, source)
		}
		verified[source] = true
	}

	for _, chunk := range chunks {
		id := chunk.ID()

		_, err := s.graph.Query(ctx,
			"MERGE (c:Chunk {id: $id}) SET c.text = $text, c.chunk_index = $index",
			map[string]any{"id": id, "text": chunk.Text, "index": chunk.Key.Index})
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %q: %w", id, err)
		}

		_, err = s.graph.Query(ctx,
			"MATCH (c:Chunk {id: $id}), (d:Document {source: $source}) MERGE (c)-[:PART_OF]->(d)",
			map[string]any{"id": id, "source": chunk.Key.Source})
		if err != nil {
			return fmt.Errorf("failed to link chunk %q to its document: %w", id, err)
		}

		if chunk.Key.Index > 0 {
			prevID := rag.ChunkKey{Source: chunk.Key.Source, Index: chunk.Key.Index - 1}.String()
			qr, err := s.graph.Query(ctx,
				"MATCH (p:Chunk {id: $prev}) RETURN p.id",
				map[string]any{"prev": prevID})
			if err != nil {
				return fmt.Errorf("failed to look up predecessor of %q: %w", id, err)
			}
			if len(qr.Results) > 0 {
				_, err = s.graph.Query(ctx,
					"MATCH (c:Chunk {id: $id}), (p:Chunk {id: $prev}) MERGE (c)-[:FOLLOWS]->(p)",
					map[string]any{"id": id, "prev": prevID})
				if err != nil {
					return fmt.Errorf("failed to link chunk %q to predecessor: %w", id, err)
				}
			}
		}
	}

	s.logger.Debug("upserted %d chunks", len(chunks))
	return nil
}

// PersistEmbeddings overwrites the embedding side-index with the batch's
// id/vector pairs. NOT additive across calls: each ingestion must carry
// the complete set of chunks it wants searchable, or previously indexed
// chunks become unsearchable. Concurrent ingestions racing here lose
// updates; serialize them.
func (s *Store) PersistEmbeddings(ctx context.Context, chunks []rag.Chunk) error {
	if s.index == nil {
		return fmt.Errorf("no side-index configured")
	}

	snapshot := &index.Snapshot{
		IDs:        make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
	}
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %q has no embedding", chunk.ID())
		}
		snapshot.IDs[i] = chunk.ID()
		snapshot.Embeddings[i] = chunk.Embedding
	}

	if err := s.index.Persist(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist embeddings: %w", err)
	}
	s.logger.Debug("persisted side-index snapshot of %d embeddings", snapshot.Len())
	return nil
}

// Index exposes the owned side-index for read-only consumers.
func (s *Store) Index() index.VectorIndex {
	return s.index
}

// GetChunk fetches the authoritative fields of a single chunk by id.
// Returns (nil, nil) when the chunk is not in the graph.
func (s *Store) GetChunk(ctx context.Context, id string) (*rag.SearchResult, error) {
	if s.graph == nil {
		return nil, rag.ErrNotConnected
	}

	qr, err := s.graph.Query(ctx,
		"MATCH (c:Chunk {id: $id}) RETURN c.id, c.text, c.chunk_index",
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunk %q: %w", id, err)
	}
	if len(qr.Results) == 0 || len(qr.Results[0]) < 3 {
		return nil, nil
	}

	row := qr.Results[0]
	result := &rag.SearchResult{
		ID:   asString(row[0]),
		Text: asString(row[1]),
	}
	if n, ok := asInt(row[2]); ok {
		result.ChunkIndex = n
	}
	return result, nil
}

// Stats holds ad-hoc corpus counts for observability.
type Stats struct {
	Documents     int
	Chunks        int
	Relationships int
}

// Stats counts Document nodes, Chunk nodes, and relationship edges.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if s.graph == nil {
		return nil, rag.ErrNotConnected
	}

	stats := &Stats{}
	counts := []struct {
		cypher string
		target *int
	}{
		{"MATCH (d:Document) RETURN count(d)", &stats.Documents},
		{"MATCH (c:Chunk) RETURN count(c)", &stats.Chunks},
		{"MATCH ()-[r]->() RETURN count(r)", &stats.Relationships},
	}
	for _, count := range counts {
		qr, err := s.graph.Query(ctx, count.cypher, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to collect stats: %w", err)
		}
		if len(qr.Results) > 0 && len(qr.Results[0]) > 0 {
			if n, ok := asInt(qr.Results[0][0]); ok {
				*count.target = n
			}
		}
	}
	return stats, nil
}

// RunQuery is a thin pass-through for ad-hoc Cypher. No validation is
// performed here; malformed query text surfaces as a database error.
func (s *Store) RunQuery(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	if s.graph == nil {
		return QueryResult{}, rag.ErrNotConnected
	}
	return s.graph.Query(ctx, cypher, params)
}

var propertyRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeProperty maps a metadata key onto a safe Cypher property name.
func sanitizeProperty(key string) string {
	clean := propertyRegex.ReplaceAllString(key, "_")
	if clean == "" || (clean[0] >= '0' && clean[0] <= '9') {
		return ""
	}
	return clean
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
