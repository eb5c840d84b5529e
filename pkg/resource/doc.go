// Package resource provides cached access to the docstore backend.
//
// The Service derives a canonical cache key for every logical read request,
// consults the shared cache store before delegating to the backend, and
// populates the store with a TTL matched to the volatility of the result:
// document metadata is cached longer than search pages.
//
// Mutations (upload, approval, deletion) go straight to the backend and
// invalidate every cache key family the changed document could appear in.
// This is best-effort consistency: a bounded staleness window is accepted,
// and callers that need strict consistency must bypass the cache.
//
// Duplicate concurrent fetches for the same uncached key are coalesced into
// a single backend call when Config.SingleFlight is enabled; otherwise both
// fetches run and the last write wins, which is safe because results for a
// given key are equivalent values.
package resource
