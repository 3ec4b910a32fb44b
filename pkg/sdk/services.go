package paperdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
	"github.com/kailas-cloud/paperdex/internal/domain/search/mode"
	ingestuc "github.com/kailas-cloud/paperdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/paperdex/internal/usecase/search"
)

// SearchOption configures a Search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	topK       int
	mode       Mode
	categories []string
}

// SearchTopK sets the number of results to return (default 5, max 50).
func SearchTopK(n int) SearchOption {
	return func(o *searchOptions) { o.topK = n }
}

// SearchMode selects the retrieval algorithm (default ModeHybrid).
func SearchMode(m Mode) SearchOption {
	return func(o *searchOptions) { o.mode = m }
}

// SearchCategories restricts results to papers carrying at least one of the
// given arXiv categories.
func SearchCategories(cats ...string) SearchOption {
	return func(o *searchOptions) { o.categories = cats }
}

// Search retrieves the chunks most relevant to a query.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}

	cats, err := filter.New(o.categories)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp, err := c.searchSvc.Search(ctx, searchuc.Request{
		Query:      query,
		TopK:       o.topK,
		Mode:       mode.Mode(o.mode),
		Categories: cats,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchResult, len(resp.Results))
	for i := range resp.Results {
		out[i] = fromInternalResult(&resp.Results[i])
	}
	return out, nil
}

// AskOption configures an Ask call.
type AskOption func(*askOptions)

type askOptions struct {
	topK int
}

// AskTopK sets how many chunks are retrieved as answer context (default 5).
func AskTopK(n int) AskOption {
	return func(o *askOptions) { o.topK = n }
}

// Ask synthesizes an answer to a question, grounded on retrieved chunks.
// Repeated questions are served from the query cache.
func (c *Client) Ask(ctx context.Context, question string, opts ...AskOption) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	var o askOptions
	for _, opt := range opts {
		opt(&o)
	}

	rec, err := c.answerSvc.Ask(ctx, question, o.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return fromInternalAnswer(rec), nil
}

// IngestOption configures an ingestion call.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	force bool
}

// IngestForce re-ingests papers even when they are already indexed.
func IngestForce() IngestOption {
	return func(o *ingestOptions) { o.force = true }
}

// Ingest fetches, chunks, embeds and indexes the given arXiv papers.
// Already-indexed papers are skipped unless IngestForce is set.
func (c *Client) Ingest(ctx context.Context, ids []string, opts ...IngestOption) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	report, err := c.ingestSvc.Run(ctx, ingestuc.Request{IDs: ids, Force: o.force})
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	return fromInternalReport(report), nil
}

// IngestCategory ingests the most recent papers of one arXiv category.
func (c *Client) IngestCategory(
	ctx context.Context, category string, maxResults int, opts ...IngestOption,
) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	report, err := c.ingestSvc.Run(ctx, ingestuc.Request{
		Category:   category,
		MaxResults: maxResults,
		Force:      o.force,
	})
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest category %s: %w", category, err)
	}
	return fromInternalReport(report), nil
}

// Stats reports corpus size: papers known, papers indexed, chunks indexed.
func (c *Client) Stats(ctx context.Context) (_ CorpusStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	stats, err := c.ingestSvc.Stats(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("stats: %w", err)
	}
	return CorpusStats{
		PapersTotal:   stats.PapersTotal,
		PapersIndexed: stats.PapersIndexed,
		ChunksTotal:   stats.ChunksTotal,
	}, nil
}

func fromInternalReport(r ingestuc.Report) IngestReport {
	papers := make([]PaperStatus, len(r.Statuses))
	for i, st := range r.Statuses {
		papers[i] = fromInternalStatus(st)
	}
	return IngestReport{
		Papers:        papers,
		Indexed:       r.Indexed,
		Skipped:       r.Skipped,
		Failed:        r.Failed,
		ChunksWritten: r.ChunksWritten,
	}
}
