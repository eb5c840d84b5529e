// Package pagination provides parallel prefetching of search result pages.
//
// Search responses carry a total page count. This package implements a
// worker pool that fetches the remaining pages of a query through the
// cached access layer, so every page lands in the shared cache before the
// user pages through the results.
//
// Example usage:
//
//	config := pagination.DefaultConfig()
//	prefetcher := pagination.NewPrefetcher(service, config)
//	fetched, err := prefetcher.PrefetchAll(ctx, resource.SearchRequest{Query: "report"})
//
// The prefetcher:
//   - Fetches the first page to determine the total page count
//   - Spawns a worker pool (default 4 workers)
//   - Distributes the remaining pages across workers
//   - Tolerates per-page failures (returns the count of pages fetched)
//
// Because pages are fetched through the access layer, results populate the
// cache as a side effect; callers rarely need the returned data itself.
package pagination
