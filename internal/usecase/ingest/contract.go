package ingest

import (
	"context"
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// Fetcher retrieves paper metadata from the upstream source.
type Fetcher interface {
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Paper, error)
	FetchByCategory(ctx context.Context, category string, maxResults int) ([]domain.Paper, error)
}

// PaperRepo persists paper metadata and the indexed flag.
type PaperRepo interface {
	Upsert(ctx context.Context, p *domain.Paper) error
	Get(ctx context.Context, arxivID string) (domain.Paper, error)
	MarkIndexed(ctx context.Context, arxivID string, at time.Time) error
	Stats(ctx context.Context) (total, indexed int, err error)
}

// ChunkIndex writes chunk sets and reports index size.
type ChunkIndex interface {
	Replace(ctx context.Context, p *domain.Paper, chunks []domain.Chunk) error
	CountChunks(ctx context.Context, arxivID string) (int, error)
}

// Chunker splits paper text into indexable chunks.
type Chunker interface {
	Split(arxivID, text string, section domain.SectionType) ([]domain.Chunk, error)
}

// Embedder vectorizes chunk texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Invalidator drops cached query results after the corpus changes.
type Invalidator interface {
	InvalidateSearches(ctx context.Context) (int, error)
}
