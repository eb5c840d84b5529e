package resource

import (
	"fmt"
	"sort"
	"strings"
)

// Cache key prefixes per resource family. Prefix invalidation relies on
// every key of a family sharing its prefix.
const (
	documentKeyPrefix = "doc:"
	searchKeyPrefix   = "search:"
)

// DocumentKey returns the canonical cache key for a document fetch.
//
// Example:
//
//	doc:42
func DocumentKey(id string) string {
	return documentKeyPrefix + strings.TrimSpace(id)
}

// CacheKey generates a deterministic cache key for the search request.
// All parameters are canonicalized first: the query is lowercased with
// whitespace collapsed, filters are sorted by key, and pagination defaults
// are applied, so that semantically identical requests always produce the
// same key regardless of caller-side parameter ordering. Delimiter
// characters inside parameters are percent-encoded, so distinct requests
// never share a key.
//
// Format: search:q=<query>:f:<k>=<v>...:sort=<sort>:page=N:per=M
//
// Example:
//
//	search:q=annual report:f:mime=application/pdf:sort=date:page=1:per=20
func (r SearchRequest) CacheKey() string {
	parts := []string{"search", "q=" + canonicalize(r.Query)}

	// Add filters (sorted by canonical key for determinism)
	if len(r.Filters) > 0 {
		filterKeys := make([]string, 0, len(r.Filters))
		for key := range r.Filters {
			filterKeys = append(filterKeys, key)
		}
		sort.Slice(filterKeys, func(i, j int) bool {
			return canonicalize(filterKeys[i]) < canonicalize(filterKeys[j])
		})

		for _, key := range filterKeys {
			parts = append(parts, fmt.Sprintf("f:%s=%s", canonicalize(key), canonicalize(r.Filters[key])))
		}
	}

	if sortKey := canonicalize(r.Sort); sortKey != "" {
		parts = append(parts, "sort="+sortKey)
	}

	parts = append(parts,
		fmt.Sprintf("page=%d", r.page()),
		fmt.Sprintf("per=%d", r.pageSize()),
	)

	return strings.Join(parts, ":")
}

// familyPrefix returns the key prefix shared by every page of this search,
// used to invalidate all pages of a query at once.
func (r SearchRequest) familyPrefix() string {
	key := r.CacheKey()
	if idx := strings.LastIndex(key, ":page="); idx >= 0 {
		return key[:idx+1]
	}
	return key
}

func (r SearchRequest) page() int {
	if r.Page < 1 {
		return 1
	}
	return r.Page
}

func (r SearchRequest) pageSize() int {
	if r.PageSize < 1 {
		return 20
	}
	return r.PageSize
}

// keyEscaper percent-encodes the characters that delimit key components.
// Escaping "%" first keeps the encoding reversible, so a query such as
// "report:f:mime=pdf" cannot forge the key of a filtered search.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "=", "%3D")

// canonicalize lowercases s, collapses runs of whitespace to a single
// space, and escapes key delimiters. Equal logical values map to equal
// canonical forms, and distinct values stay distinct.
func canonicalize(s string) string {
	return keyEscaper.Replace(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}
