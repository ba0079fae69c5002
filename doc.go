// minirag - A Minimal Graph-Backed RAG Engine in Go
//
// minirag is a small retrieval-augmented-generation engine that keeps its
// corpus in a Cypher graph database. Documents are split into overlapping
// word-window chunks, embedded, and persisted as Chunk and Document nodes
// connected by PART_OF and FOLLOWS relationships, while a flat embedding
// side-index serves fast similarity scans. At query time the engine embeds
// the question, scores the side-index by inner product, optionally expands
// matched chunks to their document-order neighbors, and hands the combined
// context to an answer generator.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/minirag
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"os"
//
//		"github.com/smallnest/minirag/rag"
//		"github.com/smallnest/minirag/rag/graphstore"
//		"github.com/smallnest/minirag/rag/index"
//		"github.com/smallnest/minirag/rag/llm"
//		"github.com/smallnest/minirag/rag/loader"
//		"github.com/smallnest/minirag/rag/retriever"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		idx := index.NewFileIndex("embeddings.json")
//		store := graphstore.NewStore(graphstore.Options{
//			Addr:  "localhost:6379",
//			Graph: "minirag",
//		}, idx)
//		_ = store.Connect(ctx)
//
//		config := rag.DefaultEngineConfig()
//		config.EmbeddingModel = "text-embedding-3-small"
//		config.Registry = rag.NewModelRegistry(func(model string) (rag.Embedder, error) {
//			return rag.NewOpenAIEmbedder(model)
//		})
//		config.Store = store
//		config.Searcher = retriever.NewSimilarityRetriever(idx, store, nil)
//		config.Expander = retriever.NewExpander(store, nil)
//		config.Generator = llm.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini")
//
//		engine, _ := rag.NewEngine(config)
//
//		_ = engine.IngestDocuments(ctx, loader.NewWebLoader([]string{
//			"https://en.wikipedia.org/wiki/Knowledge_graph",
//		}))
//
//		result, _ := engine.Query(ctx, "What is a knowledge graph?", 3)
//		fmt.Println(result.Answer)
//	}
//
// # Packages
//
//   - rag: core types, chunker, embedder registry, and the Engine orchestrator
//   - rag/graphstore: Document/Chunk persistence over GRAPH.QUERY (FalkorDB-compatible)
//   - rag/index: embedding side-index backends (file, redis, sqlite, postgres)
//   - rag/retriever: inner-product similarity search and neighbor expansion
//   - rag/loader: document acquisition (web scraping, markdown, static fixtures)
//   - rag/llm: answer generators (OpenAI, langchaingo models)
//   - log: pluggable logging
package minirag // import "github.com/smallnest/minirag"
