// Package arxiv fetches paper metadata from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// DefaultBaseURL is the public arXiv API query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// DefaultMaxResults bounds category fetches when the caller does not set a limit.
const DefaultMaxResults = 20

// Fetcher retrieves paper metadata over the arXiv Atom API.
type Fetcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Config holds fetcher settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates an arXiv metadata fetcher.
func New(cfg *Config) *Fetcher {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// FetchByIDs fetches metadata for specific arXiv IDs. Missing IDs simply do
// not appear in the result; the caller decides whether that is an error.
func (f *Fetcher) FetchByIDs(ctx context.Context, ids []string) ([]domain.Paper, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids: %w", domain.ErrInvalidArgument)
	}
	q := url.Values{}
	q.Set("id_list", strings.Join(ids, ","))
	q.Set("max_results", fmt.Sprintf("%d", len(ids)))
	return f.query(ctx, q)
}

// FetchByCategory fetches the most recently submitted papers in a category.
func (f *Fetcher) FetchByCategory(ctx context.Context, category string, maxResults int) ([]domain.Paper, error) {
	if category == "" {
		return nil, fmt.Errorf("empty category: %w", domain.ErrInvalidArgument)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	q := url.Values{}
	q.Set("search_query", "cat:"+category)
	q.Set("max_results", fmt.Sprintf("%d", maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	return f.query(ctx, q)
}

func (f *Fetcher) query(ctx context.Context, q url.Values) ([]domain.Paper, error) {
	reqURL := f.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p, ok := e.toPaper()
		if !ok {
			f.logger.Warn("Skipping malformed arxiv entry", zap.String("id", e.ID))
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e *atomEntry) toPaper() (domain.Paper, bool) {
	id := parseArxivID(e.ID)
	if id == "" {
		return domain.Paper{}, false
	}

	p := domain.Paper{
		ArxivID:  id,
		Title:    collapseWhitespace(e.Title),
		Abstract: collapseWhitespace(e.Summary),
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			p.Categories = append(p.Categories, c.Term)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
			break
		}
	}
	if ts, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Published = ts.UTC()
	}

	if p.Title == "" && p.Abstract == "" {
		return domain.Paper{}, false
	}
	return p, true
}

// parseArxivID extracts the bare ID from an Atom entry ID like
// "http://arxiv.org/abs/2401.12345v2". Version suffixes are stripped so
// re-fetching a revised paper maps to the same record.
func parseArxivID(entryID string) string {
	id := entryID
	if pos := strings.LastIndex(id, "/abs/"); pos >= 0 {
		id = id[pos+len("/abs/"):]
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if pos := strings.LastIndex(id, "v"); pos > 0 {
		if isDigits(id[pos+1:]) {
			id = id[:pos]
		}
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns in
// title and summary fields.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
