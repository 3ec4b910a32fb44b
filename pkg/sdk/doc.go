// Package paperdex provides an embedded Go client for the paperdex hybrid
// retrieval engine backed by Redis with the search module.
//
// The client wires the full pipeline (ingestion, hybrid search, answer
// synthesis) directly over a Redis connection, without going through the
// HTTP API:
//
//	client, _ := paperdex.New(ctx,
//	    paperdex.WithRedis("localhost:6379", ""),
//	    paperdex.WithEmbedder(emb),
//	    paperdex.WithGenerator(gen),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, []string{"2401.12345"})
//	results, _ := client.Search(ctx, "reciprocal rank fusion",
//	    paperdex.SearchTopK(10),
//	    paperdex.SearchMode(paperdex.ModeHybrid),
//	)
//	answer, _ := client.Ask(ctx, "What is reciprocal rank fusion?")
//
// Embedding and generation providers are supplied by the caller; any
// implementation of the Embedder and Generator interfaces works. Search
// works without a Generator; Ask requires one.
package paperdex
