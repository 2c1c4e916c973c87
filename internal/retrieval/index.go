package retrieval

import (
	"context"
	"fmt"

	"github.com/hirestack/resume-screener/internal/model"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type DocumentStore interface {
	ReplaceAll(docs []model.ReferenceDocument) error
	SearchDocuments(embedding pgvector.Vector, topK int) ([]model.ReferenceDocument, error)
}

// Document is one corpus entry to index.
type Document struct {
	Title   string
	Content string
}

// Index is the retrieval index over the reference-document corpus. It is
// built once at startup and read-only afterwards, so any number of
// pipeline goroutines may call Retrieve concurrently.
type Index struct {
	embedder Embedder
	store    DocumentStore
	logger   *zap.Logger
}

func NewIndex(embedder Embedder, store DocumentStore, logger *zap.Logger) *Index {
	return &Index{embedder: embedder, store: store, logger: logger}
}

// Build embeds every document and replaces the stored corpus with the result.
func (i *Index) Build(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return fmt.Errorf("no reference documents to index")
	}

	rows := make([]model.ReferenceDocument, 0, len(documents))
	for _, doc := range documents {
		embedding, err := i.embedder.GenerateEmbedding(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embed document %q: %w", doc.Title, err)
		}
		rows = append(rows, model.ReferenceDocument{
			Title:     doc.Title,
			Content:   doc.Content,
			Embedding: pgvector.NewVector(embedding),
		})
	}

	if err := i.store.ReplaceAll(rows); err != nil {
		return fmt.Errorf("store reference documents: %w", err)
	}

	i.logger.Info("retrieval index built", zap.Int("documents", len(rows)))
	return nil
}

// Retrieve returns the contents of the topK documents closest to the query
// by L2 distance, nearest first.
func (i *Index) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	embedding, err := i.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := i.store.SearchDocuments(pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("search reference documents: %w", err)
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}
	return contents, nil
}
