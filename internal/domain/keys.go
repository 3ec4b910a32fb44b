package domain

// KeyPrefix namespaces every key paperdex writes to the store.
const KeyPrefix = "paperdex:"

// Key families under KeyPrefix.
const (
	PaperKeyPrefix       = KeyPrefix + "paper:"
	ChunkKeyPrefix       = KeyPrefix + "chunk:"
	ChunkIndexName       = KeyPrefix + "chunks:idx"
	EmbeddingCachePrefix = KeyPrefix + "emb_cache:"
	QueryCachePrefix     = KeyPrefix + "qcache:"
)
