package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

func res(arxivID string, idx int, score float64) result.Result {
	return result.New(arxivID, idx, score, "text", "body", "Title", "http://pdf")
}

func TestFuseRRF_BothListsContribute(t *testing.T) {
	knn := []result.Result{
		res("a", 0, 0.95),
		res("b", 0, 0.80),
	}
	bm25 := []result.Result{
		res("b", 0, 12.0),
		res("c", 0, 8.0),
	}

	fused := fuseRRF(knn, bm25, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}

	// b appears in both lists (ranks 2 and 1) and must come first:
	// 1/62 + 1/61 > 1/61 (a) > 1/62 (c)
	if fused[0].ChunkID() != "b:0" {
		t.Errorf("expected b:0 first, got %s", fused[0].ChunkID())
	}
	if fused[1].ChunkID() != "a:0" {
		t.Errorf("expected a:0 second, got %s", fused[1].ChunkID())
	}
	if fused[2].ChunkID() != "c:0" {
		t.Errorf("expected c:0 third, got %s", fused[2].ChunkID())
	}

	wantB := 1.0/62 + 1.0/61
	if math.Abs(fused[0].Score()-wantB) > 1e-12 {
		t.Errorf("b score = %v, want %v", fused[0].Score(), wantB)
	}
	if fused[0].VectorRank() != 2 || fused[0].KeywordRank() != 1 {
		t.Errorf("b ranks = %d/%d, want 2/1", fused[0].VectorRank(), fused[0].KeywordRank())
	}
	if fused[1].KeywordRank() != result.RankAbsent {
		t.Errorf("a keyword rank should be absent, got %d", fused[1].KeywordRank())
	}
}

func TestFuseRRF_TopRankedByBothBeatsSingleMethodTop(t *testing.T) {
	// a is rank 1 in both; b is rank 2 vector only, c rank 2 keyword only
	knn := []result.Result{res("a", 0, 0.99), res("b", 0, 0.90)}
	bm25 := []result.Result{res("a", 0, 20.0), res("c", 0, 10.0)}

	fused := fuseRRF(knn, bm25, 3)
	if fused[0].ChunkID() != "a:0" {
		t.Fatalf("chunk ranked #1 by both methods must be first, got %s", fused[0].ChunkID())
	}
	if fused[0].Score() <= fused[1].Score() {
		t.Error("dual-ranked top chunk must strictly outscore single-method chunks")
	}
}

func TestFuseRRF_TieBreaks(t *testing.T) {
	// x ranked 1 by vector only, y ranked 1 by keyword only: equal scores,
	// equal combined ranks, so chunk ID decides
	knn := []result.Result{res("x", 0, 0.9)}
	bm25 := []result.Result{res("y", 0, 5.0)}

	fused := fuseRRF(knn, bm25, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	if fused[0].Score() != fused[1].Score() {
		t.Fatalf("scores should tie: %v vs %v", fused[0].Score(), fused[1].Score())
	}
	if fused[0].ChunkID() != "x:0" || fused[1].ChunkID() != "y:0" {
		t.Errorf("tie must break on chunk ID: got %s, %s", fused[0].ChunkID(), fused[1].ChunkID())
	}
}

func TestFuseRRF_Deterministic(t *testing.T) {
	knn := []result.Result{
		res("a", 0, 0.9), res("b", 1, 0.8), res("c", 2, 0.7), res("d", 3, 0.6),
	}
	bm25 := []result.Result{
		res("d", 3, 9.0), res("c", 2, 8.0), res("e", 0, 7.0), res("a", 0, 6.0),
	}

	first := fuseRRF(knn, bm25, 5)
	for i := 0; i < 100; i++ {
		again := fuseRRF(knn, bm25, 5)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed", i)
		}
		for j := range first {
			if again[j].ChunkID() != first[j].ChunkID() {
				t.Fatalf("run %d: position %d changed from %s to %s",
					i, j, first[j].ChunkID(), again[j].ChunkID())
			}
		}
	}
}

func TestFuseRRF_TruncatesToTopK(t *testing.T) {
	knn := []result.Result{res("a", 0, 0.9), res("b", 0, 0.8), res("c", 0, 0.7)}
	fused := fuseRRF(knn, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
}

func TestFuseRRF_EmptyInputs(t *testing.T) {
	if got := fuseRRF(nil, nil, 5); len(got) != 0 {
		t.Errorf("expected no results for empty inputs, got %d", len(got))
	}
}
