package cache

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NormalizeQuery lowercases and trims query text so that trivially
// different spellings of the same question share a cache key.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryKey derives the embedding-cache key from query text.
func QueryKey(query string) string {
	return strconv.FormatUint(xxhash.Sum64String(NormalizeQuery(query)), 16)
}

// ResultKey derives the result-cache key from query text and the filter
// set. Filters are serialized in a stable, sorted order so that filter
// order never affects key equality.
func ResultKey(query string, sourceWork string, documentIDs []string) string {
	ids := make([]string, len(documentIDs))
	copy(ids, documentIDs)
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(NormalizeQuery(query))
	b.WriteString("|work=")
	b.WriteString(strings.ToLower(strings.TrimSpace(sourceWork)))
	b.WriteString("|docs=")
	b.WriteString(strings.Join(ids, ","))

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
