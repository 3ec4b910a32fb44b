package paper

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// Hash field names for paper metadata records.
const (
	fieldArxivID    = "arxiv_id"
	fieldTitle      = "title"
	fieldAbstract   = "abstract"
	fieldAuthors    = "authors"
	fieldCategories = "categories"
	fieldPublished  = "published"
	fieldPDFURL     = "pdf_url"
	fieldIndexed    = "indexed"
	fieldIndexedAt  = "indexed_at"
)

// authorSep separates author names in the flat hash encoding. Author names
// legitimately contain commas ("Doe, Jr."), so a pipe is used instead.
const authorSep = "|"

func toFields(p *domain.Paper) map[string]string {
	fields := map[string]string{
		fieldArxivID:    p.ArxivID,
		fieldTitle:      p.Title,
		fieldAbstract:   p.Abstract,
		fieldAuthors:    strings.Join(p.Authors, authorSep),
		fieldCategories: strings.Join(p.Categories, ","),
		fieldPDFURL:     p.PDFURL,
		fieldIndexed:    boolField(p.Indexed),
	}
	if !p.Published.IsZero() {
		fields[fieldPublished] = strconv.FormatInt(p.Published.Unix(), 10)
	}
	if !p.IndexedAt.IsZero() {
		fields[fieldIndexedAt] = strconv.FormatInt(p.IndexedAt.Unix(), 10)
	}
	return fields
}

func fromFields(fields map[string]string) domain.Paper {
	p := domain.Paper{
		ArxivID:  fields[fieldArxivID],
		Title:    fields[fieldTitle],
		Abstract: fields[fieldAbstract],
		PDFURL:   fields[fieldPDFURL],
		Indexed:  fields[fieldIndexed] == "1",
	}
	if v := fields[fieldAuthors]; v != "" {
		p.Authors = strings.Split(v, authorSep)
	}
	if v := fields[fieldCategories]; v != "" {
		p.Categories = strings.Split(v, ",")
	}
	if v := fields[fieldPublished]; v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.Published = time.Unix(ts, 0).UTC()
		}
	}
	if v := fields[fieldIndexedAt]; v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.IndexedAt = time.Unix(ts, 0).UTC()
		}
	}
	return p
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
