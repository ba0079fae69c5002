package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteIndex stores the snapshot in a two-column table, one row per
// chunk. Persist clears and refills the table in a single transaction so
// the overwrite stays atomic.
type SqliteIndex struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "embeddings"
}

// NewSqliteIndex creates a new SQLite-backed side-index.
func NewSqliteIndex(opts SqliteOptions) (*SqliteIndex, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "embeddings"
	}

	idx := &SqliteIndex{
		db:        db,
		tableName: tableName,
	}

	if err := idx.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (s *SqliteIndex) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			embedding TEXT NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Persist replaces the snapshot table wholesale.
func (s *SqliteIndex) Persist(ctx context.Context, snapshot *Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.tableName)); err != nil {
		return fmt.Errorf("failed to clear snapshot table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (chunk_id, position, embedding) VALUES (?, ?, ?)", s.tableName)
	for i, id := range snapshot.IDs {
		embJSON, err := json.Marshal(snapshot.Embeddings[i])
		if err != nil {
			return fmt.Errorf("failed to marshal embedding for %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, insert, id, i, string(embJSON)); err != nil {
			return fmt.Errorf("failed to insert embedding for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot table in stored order. An empty table is an
// empty snapshot, not an error; a broken row is ErrIndexUnavailable.
func (s *SqliteIndex) Load(ctx context.Context) (*Snapshot, error) {
	query := fmt.Sprintf("SELECT chunk_id, embedding FROM %s ORDER BY position", s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	snapshot := &Snapshot{}
	for rows.Next() {
		var id, embJSON string
		if err := rows.Scan(&id, &embJSON); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(embJSON), &embedding); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		snapshot.IDs = append(snapshot.IDs, id)
		snapshot.Embeddings = append(snapshot.Embeddings, embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return snapshot, nil
}

// Close closes the database connection.
func (s *SqliteIndex) Close() error {
	return s.db.Close()
}
