package rag

import (
	"strings"

	"github.com/smallnest/minirag/log"
)

// minChunkWords is the floor below which a window is discarded. Short
// trailing windows are dropped silently as a policy: fragments under this
// size carry too little signal to be worth a graph node.
const minChunkWords = 50

// Chunker splits document content into fixed-size, overlapping
// word-windows. Chunking is deterministic: the same content and
// parameters always produce the same keys and text spans.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	logger       log.Logger
}

// NewChunker creates a Chunker. It fails with ErrInvalidChunking unless
// 0 <= chunkOverlap < chunkSize, since the slide stride is
// chunkSize-chunkOverlap and a non-positive stride would never advance.
func NewChunker(chunkSize, chunkOverlap int, logger log.Logger) (*Chunker, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ErrInvalidChunking
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}, nil
}

// Stride returns the window advance per step.
func (c *Chunker) Stride() int {
	return c.chunkSize - c.chunkOverlap
}

// Chunk splits each document's content on whitespace and slides a window
// of chunkSize words with the configured stride. Windows shorter than
// minChunkWords are discarded, so trailing fragments may be missing and
// chunk indexes per source are increasing but not necessarily contiguous.
// Empty or whitespace-only documents yield no chunks and are logged as
// skips, not errors.
func (c *Chunker) Chunk(documents []Document) []Chunk {
	stride := c.Stride()
	var chunks []Chunk

	for _, doc := range documents {
		words := strings.Fields(doc.Content)
		if len(words) == 0 {
			c.logger.Debug("skipping empty document %q", doc.Source)
			continue
		}

		for start := 0; start < len(words); start += stride {
			end := start + c.chunkSize
			if end > len(words) {
				end = len(words)
			}
			window := words[start:end]
			if len(window) < minChunkWords {
				c.logger.Debug("dropping %d-word window at %d of %q", len(window), start, doc.Source)
				continue
			}

			chunks = append(chunks, Chunk{
				Key:      ChunkKey{Source: doc.Source, Index: start / stride},
				Text:     strings.Join(window, " "),
				Title:    doc.Title,
				Metadata: doc.Metadata,
			})
		}
	}

	return chunks
}
