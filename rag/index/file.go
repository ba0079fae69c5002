package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileIndex stores the snapshot as a single JSON file. Writes go through
// a temp file plus rename so readers never observe a half-written
// snapshot.
type FileIndex struct {
	path string
}

// NewFileIndex creates a file-backed side-index at the given path.
func NewFileIndex(path string) *FileIndex {
	return &FileIndex{path: path}
}

// Persist overwrites the snapshot file wholesale.
func (f *FileIndex) Persist(ctx context.Context, snapshot *Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".embeddings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing or unparsable file is reported
// as ErrIndexUnavailable.
func (f *FileIndex) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return &snapshot, nil
}

// Close is a no-op for the file backend.
func (f *FileIndex) Close() error {
	return nil
}
