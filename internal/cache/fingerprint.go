// Package cache implements the query result cache: deterministic request
// fingerprinting and a read-through gate that degrades to computation when
// the cache backend is unavailable.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// Normalize canonicalizes query text for fingerprinting: trims surrounding
// whitespace, lowercases, and collapses internal whitespace runs to a single
// space. "What is RRF?" and "  what is rrf? " produce the same fingerprint.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Fingerprint derives a stable cache key fragment from a query and its
// semantically relevant parameters. Params are serialized in sorted key
// order so map iteration order never leaks into the key.
func Fingerprint(query string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(Normalize(query))
	for _, k := range keys {
		sb.WriteByte('\x00')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Key returns the full store key for a fingerprint.
func Key(fingerprint string) string {
	return domain.QueryCachePrefix + fingerprint
}
