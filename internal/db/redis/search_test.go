package redis

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/paperdex/internal/db"
	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
)

// argsContain reports whether seq appears contiguously in args.
func argsContain(args []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		match := true
		for j := range seq {
			if args[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestKNNArgs_WidenResultWindow(t *testing.T) {
	args := knnArgs(&db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{1, 0},
		K:         100,
	})

	// the KNN clause alone does not widen the reply past the server's
	// default window; LIMIT must carry K explicitly
	if !argsContain(args, "LIMIT", "0", "100") {
		t.Errorf("LIMIT 0 100 missing from args: %v", args)
	}
	if !argsContain(args, "SORTBY", "__vector_score", "ASC") {
		t.Errorf("SORTBY on the distance field missing: %v", args)
	}
	if !argsContain(args, "DIALECT", "2") {
		t.Errorf("DIALECT 2 missing: %v", args)
	}
	if !strings.Contains(args[1], "[KNN 100 @vector $BLOB]") {
		t.Errorf("unexpected query string %q", args[1])
	}
}

func TestKNNArgs_CategoryPreFilter(t *testing.T) {
	cats, err := filter.New([]string{"cs.CL"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	args := knnArgs(&db.KNNQuery{
		IndexName:  "idx",
		Vector:     []float32{1, 0},
		K:          4,
		Categories: cats,
	})

	if args[1] != `(@categories:{cs\.CL})=>[KNN 4 @vector $BLOB]` {
		t.Errorf("unexpected query string %q", args[1])
	}
}

func TestKNNArgs_ReturnFieldsForwarded(t *testing.T) {
	args := knnArgs(&db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{1, 0},
		K:            3,
		ReturnFields: []string{"text", "__vector_score"},
	})

	if !argsContain(args, "RETURN", "2", "text", "__vector_score") {
		t.Errorf("RETURN clause missing or wrong: %v", args)
	}
}

func TestBM25Args_LimitAndScores(t *testing.T) {
	args := bm25Args(&db.TextQuery{
		IndexName: "idx",
		Query:     "rank fusion",
		TopK:      7,
	})

	if !argsContain(args, "LIMIT", "0", "7") {
		t.Errorf("LIMIT 0 7 missing from args: %v", args)
	}
	if !argsContain(args, "WITHSCORES") {
		t.Errorf("WITHSCORES missing: %v", args)
	}
	if !strings.HasPrefix(args[1], "@text:(") {
		t.Errorf("unexpected query string %q", args[1])
	}
}

func TestBM25Args_EscapesQuerySyntax(t *testing.T) {
	args := bm25Args(&db.TextQuery{
		IndexName: "idx",
		Query:     `what is "RRF" (really)?`,
		TopK:      5,
	})

	if strings.Contains(args[1], `"RRF"`) || strings.Contains(args[1], `(really)`) {
		t.Errorf("query syntax not escaped: %q", args[1])
	}
}
