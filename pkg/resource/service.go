package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/arcstore/docstore-client/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Config holds the service configuration.
type Config struct {
	// DocumentTTL is how long fetched document metadata stays cached.
	// Documents change rarely, so this can be generous.
	DocumentTTL time.Duration

	// SearchTTL is how long search result pages stay cached.
	// Search results are volatile; keep this short.
	SearchTTL time.Duration

	// SingleFlight coalesces concurrent duplicate fetches for the same
	// uncached key into one backend call. When disabled, duplicates both
	// fetch and the last write wins, which is safe for equal results.
	SingleFlight bool
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		DocumentTTL:  10 * time.Minute,
		SearchTTL:    30 * time.Second,
		SingleFlight: false,
	}
}

// Service is the cached document/search access layer.
// It owns no state beyond the shared cache store handle passed at
// construction; fresh stores per test keep it testable in isolation.
type Service struct {
	backend Backend
	store   *cache.Store[any]
	cfg     Config
	logger  zerolog.Logger
	group   singleflight.Group
}

// New creates a new service on top of backend and store.
func New(backend Backend, store *cache.Store[any], cfg Config) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = DefaultConfig().DocumentTTL
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = DefaultConfig().SearchTTL
	}

	return &Service{
		backend: backend,
		store:   store,
		cfg:     cfg,
		logger:  log.With().Str("component", "resource-service").Logger(),
	}, nil
}

// GetDocument returns document metadata, served from cache when possible.
// Backend errors are propagated unchanged and nothing is cached on error.
func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	key := DocumentKey(id)

	if v, ok := s.store.Get(key); ok {
		if doc, ok := v.(*Document); ok {
			s.logger.Debug().Str("key", key).Msg("Document cache hit")
			return doc, nil
		}
	}

	v, err := s.fetch(ctx, key, func() (any, error) {
		doc, err := s.backend.FetchDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		s.store.Set(key, doc, s.cfg.DocumentTTL)
		s.logger.Debug().
			Str("key", key).
			Dur("ttl", s.cfg.DocumentTTL).
			Msg("Cached document")
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Search returns one page of search results, served from cache when possible.
// Backend errors are propagated unchanged and nothing is cached on error.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	key := req.CacheKey()

	if v, ok := s.store.Get(key); ok {
		if result, ok := v.(*SearchResult); ok {
			s.logger.Debug().Str("key", key).Msg("Search cache hit")
			return result, nil
		}
	}

	v, err := s.fetch(ctx, key, func() (any, error) {
		result, err := s.backend.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		s.store.Set(key, result, s.cfg.SearchTTL)
		s.logger.Debug().
			Str("key", key).
			Dur("ttl", s.cfg.SearchTTL).
			Msg("Cached search page")
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchResult), nil
}

// fetch runs fn directly, or through the single-flight group when
// duplicate suppression is enabled. A result that arrives after its
// original caller lost interest still lands in the cache via fn, where
// it serves as a prefetch for the next identical request.
func (s *Service) fetch(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if !s.cfg.SingleFlight {
		return fn()
	}
	v, err, shared := s.group.Do(key, fn)
	if shared {
		s.logger.Debug().Str("key", key).Msg("Coalesced duplicate fetch")
	}
	return v, err
}

// Upload stores a new document through the backend and applies write-through
// invalidation for every key family the document could appear in.
func (s *Service) Upload(ctx context.Context, doc *Document, content []byte) (*Document, error) {
	saved, err := s.backend.Upload(ctx, doc, content)
	if err != nil {
		return nil, err
	}
	s.InvalidateDocument(saved.ID)
	return saved, nil
}

// Approve marks a document approved and invalidates its cached state.
func (s *Service) Approve(ctx context.Context, id string) error {
	if err := s.backend.Approve(ctx, id); err != nil {
		return err
	}
	s.InvalidateDocument(id)
	return nil
}

// Delete removes a document and invalidates its cached state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateDocument(id)
	return nil
}

// InvalidateDocument removes the document's own cache entry and every
// search family that could include it. The document key is matched
// exactly, so invalidating "1" leaves "12" cached. Best effort: a search
// page cached between the backend write and this call may stay stale
// until its TTL.
func (s *Service) InvalidateDocument(id string) {
	s.store.Invalidate(DocumentKey(id))
	s.store.InvalidatePrefix(searchKeyPrefix)
	s.logger.Debug().Str("id", id).Msg("Invalidated document cache entries")
}

// InvalidateSearch removes every cached page of the given search query.
func (s *Service) InvalidateSearch(req SearchRequest) {
	s.store.InvalidatePrefix(req.familyPrefix())
}

// InvalidateSearches removes all cached search pages.
func (s *Service) InvalidateSearches() {
	s.store.InvalidatePrefix(searchKeyPrefix)
}

// InvalidateAll clears the whole store, counters included.
func (s *Service) InvalidateAll() {
	s.store.Clear()
}
