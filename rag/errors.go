package rag

import "errors"

var (
	// ErrInvalidChunking reports a chunk size/overlap combination whose
	// stride would be zero or negative. Caught before any pipeline work.
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")

	// ErrNotConnected reports that the graph database is unreachable or
	// rejected the connection. The operation can be retried once
	// connectivity is restored.
	ErrNotConnected = errors.New("graph database not connected")

	// ErrDocumentNotFound reports a chunk upsert whose owning Document is
	// missing from the graph. Documents must be upserted before their
	// chunks; surfacing this keeps PART_OF edges from being silently
	// dropped.
	ErrDocumentNotFound = errors.New("owning document not found in graph")

	// ErrNoDocuments reports an acquisition batch in which every item
	// failed.
	ErrNoDocuments = errors.New("no documents acquired")
)
