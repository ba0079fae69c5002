package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// embedBatchSize bounds peak memory while embedding large chunk batches.
const embedBatchSize = 32

// EmbedChunks embeds chunk texts through the given Embedder in fixed-size
// batches and returns a new slice with embeddings attached. The input
// slice is not mutated; output order and count match the input exactly.
// Any batch failure aborts the whole call, so callers re-submit the full
// batch rather than reasoning about partial results.
func EmbedChunks(ctx context.Context, embedder Embedder, chunks []Chunk) ([]Chunk, error) {
	if len(chunks) == 0 {
		return []Chunk{}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	embedded := make([]Chunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Embedding = vectors[i]
		embedded[i] = chunk
	}
	return embedded, nil
}

// LangChainEmbedder adapts langchaingo's embeddings.Embedder to the
// minirag Embedder interface.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
}

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{
		embedder: embedder,
	}
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI embeddings
// API for the given model. The API key comes from OPENAI_API_KEY.
func NewOpenAIEmbedder(model string) (*LangChainEmbedder, error) {
	llm, err := openai.New(openai.WithEmbeddingModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return NewLangChainEmbedder(embedder), nil
}

// EmbedDocument embeds a single text using the underlying langchaingo embedder
func (l *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	result := make([]float32, len(embedding))
	for i, val := range embedding {
		result[i] = float32(val)
	}
	return result, nil
}

// EmbedDocuments embeds multiple texts using the underlying langchaingo embedder
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	result := make([][]float32, len(vectors))
	for i, vector := range vectors {
		result[i] = make([]float32, len(vector))
		for j, val := range vector {
			result[i][j] = float32(val)
		}
	}
	return result, nil
}

// GetDimension returns the embedding dimension. LangChain embedders don't
// expose the dimension directly, so a probe embedding determines it.
func (l *LangChainEmbedder) GetDimension() int {
	probe, err := l.embedder.EmbedQuery(context.Background(), "test")
	if err != nil {
		return 0
	}
	return len(probe)
}
