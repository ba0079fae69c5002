package loader

import (
	"context"
	"maps"

	"github.com/smallnest/minirag/rag"
)

// StaticLoader serves a fixed in-memory document list. Useful for tests
// and for callers that acquire content themselves.
type StaticLoader struct {
	Documents []rag.Document
}

// NewStaticLoader creates a loader over the given documents.
func NewStaticLoader(documents []rag.Document) *StaticLoader {
	return &StaticLoader{
		Documents: documents,
	}
}

// Load returns the static list of documents.
func (l *StaticLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.Documents, nil
}

// LoadWithMetadata returns the documents with extra metadata merged into
// each copy. The stored documents are not mutated.
func (l *StaticLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	if metadata == nil {
		return l.Documents, nil
	}

	docs := make([]rag.Document, len(l.Documents))
	for i, doc := range l.Documents {
		newDoc := doc
		newDoc.Metadata = make(map[string]any, len(doc.Metadata)+len(metadata))
		maps.Copy(newDoc.Metadata, doc.Metadata)
		maps.Copy(newDoc.Metadata, metadata)
		docs[i] = newDoc
	}
	return docs, nil
}
