package pagination

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arcstore/docstore-client/pkg/resource"
	"github.com/rs/zerolog/log"
)

// Config holds prefetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration

	// MaxPages caps how many pages a single prefetch will pull.
	MaxPages int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       50,
	}
}

// SearchPager is the interface the cached access layer must implement for
// page prefetching.
type SearchPager interface {
	Search(ctx context.Context, req resource.SearchRequest) (*resource.SearchResult, error)
}

// Prefetcher warms the cache with all pages of a search query.
type Prefetcher struct {
	pager  SearchPager
	config Config
}

// NewPrefetcher creates a new prefetcher.
func NewPrefetcher(pager SearchPager, config Config) *Prefetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 50
	}

	return &Prefetcher{
		pager:  pager,
		config: config,
	}
}

// PrefetchAll fetches every page of the query through the access layer,
// populating the cache as it goes. It returns the number of pages fetched
// successfully; per-page failures are logged and skipped.
func (p *Prefetcher) PrefetchAll(ctx context.Context, req resource.SearchRequest) (int, error) {
	start := time.Now()

	req.Page = 1
	first, err := p.pager.Search(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := first.TotalPages
	if totalPages > p.config.MaxPages {
		totalPages = p.config.MaxPages
	}

	log.Debug().
		Str("query", req.Query).
		Int("total_pages", totalPages).
		Msg("Starting parallel page prefetch")

	if totalPages <= 1 {
		return 1, nil
	}

	pageQueue := make(chan int, totalPages)
	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var fetched int32 = 1 // first page already fetched
	var wg sync.WaitGroup
	for i := 0; i < p.config.MaxConcurrency; i++ {
		wg.Add(1)
		go p.worker(ctx, req, pageQueue, &fetched, &wg)
	}
	wg.Wait()

	log.Debug().
		Str("query", req.Query).
		Int32("pages", atomic.LoadInt32(&fetched)).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Prefetch complete")

	return int(atomic.LoadInt32(&fetched)), ctx.Err()
}

// worker pulls page numbers from the queue until it is drained or the
// context ends.
func (p *Prefetcher) worker(ctx context.Context, req resource.SearchRequest, pageQueue <-chan int, fetched *int32, wg *sync.WaitGroup) {
	defer wg.Done()

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pageReq := req
		pageReq.Page = pageNum

		pageCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		_, err := p.pager.Search(pageCtx, pageReq)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Str("query", req.Query).
				Int("page", pageNum).
				Msg("Page prefetch failed")
			continue
		}

		atomic.AddInt32(fetched, 1)
	}
}
