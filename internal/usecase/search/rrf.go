package search

import (
	"sort"

	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges KNN and BM25 candidate lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over the rankings where d appears,
// with 1-based ranks. When a chunk appears in both lists the KNN copy is
// kept as the carrier.
//
// Ordering is fully deterministic: fused score descending, then smaller
// combined rank (a chunk ranked by both methods beats a single-method chunk
// through the RankAbsent sentinel), then chunk ID.
func fuseRRF(knn, bm25 []result.Result, topK int) []result.Result {
	type scored struct {
		res         result.Result
		score       float64
		vectorRank  int
		keywordRank int
	}

	merged := make(map[string]*scored, len(knn)+len(bm25))

	for i := range knn {
		r := &knn[i]
		rank := i + 1
		merged[r.ChunkID()] = &scored{
			res:         *r,
			score:       1.0 / float64(rrfK+rank),
			vectorRank:  rank,
			keywordRank: result.RankAbsent,
		}
	}

	for i := range bm25 {
		r := &bm25[i]
		rank := i + 1
		if existing, ok := merged[r.ChunkID()]; ok {
			existing.score += 1.0 / float64(rrfK+rank)
			existing.keywordRank = rank
			continue
		}
		merged[r.ChunkID()] = &scored{
			res:         *r,
			score:       1.0 / float64(rrfK+rank),
			vectorRank:  result.RankAbsent,
			keywordRank: rank,
		}
	}

	results := make([]result.Result, 0, len(merged))
	for _, s := range merged {
		results = append(results, s.res.WithRanks(s.score, s.vectorRank, s.keywordRank))
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		ca := a.VectorRank() + a.KeywordRank()
		cb := b.VectorRank() + b.KeywordRank()
		if ca != cb {
			return ca < cb
		}
		return a.ChunkID() < b.ChunkID()
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results
}
