package chunkindex

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/paperdex/internal/db"
	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// Hash field names for indexed chunk records. fieldText, fieldCategories and
// fieldVector must stay in sync with the FT.SEARCH query building in db/redis.
const (
	fieldArxivID    = "arxiv_id"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
	fieldSection    = "section"
	fieldTitle      = "title"
	fieldCategories = "categories"
	fieldPublished  = "published"
	fieldPDFURL     = "pdf_url"
	fieldWordCount  = "word_count"
	fieldVector     = "vector"
)

// returnFields are requested from FT.SEARCH for every hit.
var returnFields = []string{
	fieldArxivID, fieldChunkIndex, fieldText, fieldSection,
	fieldTitle, fieldPDFURL, "__vector_score",
}

func chunkKey(arxivID string, index int) string {
	return domain.ChunkKeyPrefix + arxivID + ":" + strconv.Itoa(index)
}

func toFields(p *domain.Paper, c *domain.Chunk) map[string]string {
	fields := map[string]string{
		fieldArxivID:    c.ArxivID,
		fieldChunkIndex: strconv.Itoa(c.Index),
		fieldText:       c.Text,
		fieldSection:    string(c.Section),
		fieldTitle:      p.Title,
		fieldCategories: strings.Join(p.Categories, ","),
		fieldPDFURL:     p.PDFURL,
		fieldWordCount:  strconv.Itoa(c.WordCount),
		fieldVector:     vectorToBytes(c.Vector),
	}
	if !p.Published.IsZero() {
		fields[fieldPublished] = strconv.FormatInt(p.Published.Unix(), 10)
	}
	return fields
}

func entryToResult(entry db.SearchEntry) result.Result {
	f := entry.Fields
	idx, _ := strconv.Atoi(f[fieldChunkIndex])
	arxivID := f[fieldArxivID]
	if arxivID == "" {
		// fall back to parsing the hash key "paperdex:chunk:<id>:<idx>"
		rest := strings.TrimPrefix(entry.Key, domain.ChunkKeyPrefix)
		if pos := strings.LastIndex(rest, ":"); pos > 0 {
			arxivID = rest[:pos]
			idx, _ = strconv.Atoi(rest[pos+1:])
		}
	}
	return result.New(
		arxivID, idx, entry.Score,
		f[fieldText], f[fieldSection], f[fieldTitle], f[fieldPDFURL],
	)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
