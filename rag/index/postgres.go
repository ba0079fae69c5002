package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresIndex stores the snapshot in a Postgres table, one row per
// chunk, replaced wholesale on every Persist.
type PostgresIndex struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "embeddings"
}

// NewPostgresIndex creates a new Postgres-backed side-index.
func NewPostgresIndex(ctx context.Context, opts PostgresOptions) (*PostgresIndex, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "embeddings"
	}

	return &PostgresIndex{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewPostgresIndexWithPool creates a Postgres side-index with an existing pool
// Useful for testing with mocks
func NewPostgresIndexWithPool(pool DBPool, tableName string) *PostgresIndex {
	if tableName == "" {
		tableName = "embeddings"
	}
	return &PostgresIndex{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the snapshot table if it doesn't exist.
func (p *PostgresIndex) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			embedding REAL[] NOT NULL
		);
	`, p.tableName)

	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Persist replaces the snapshot table wholesale.
func (p *PostgresIndex) Persist(ctx context.Context, snapshot *Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", p.tableName)); err != nil {
		return fmt.Errorf("failed to clear snapshot table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (chunk_id, position, embedding) VALUES ($1, $2, $3)", p.tableName)
	for i, id := range snapshot.IDs {
		if _, err := p.pool.Exec(ctx, insert, id, i, snapshot.Embeddings[i]); err != nil {
			return fmt.Errorf("failed to insert embedding for %s: %w", id, err)
		}
	}
	return nil
}

// Load reads the snapshot table in stored order.
func (p *PostgresIndex) Load(ctx context.Context) (*Snapshot, error) {
	query := fmt.Sprintf("SELECT chunk_id, embedding FROM %s ORDER BY position", p.tableName)
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	snapshot := &Snapshot{}
	for rows.Next() {
		var id string
		var embedding []float32
		if err := rows.Scan(&id, &embedding); err != nil {
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

// Close closes the connection pool.
func (p *PostgresIndex) Close() error {
	p.pool.Close()
	return nil
}
