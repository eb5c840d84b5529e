package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcstore/docstore-client/pkg/cache"
)

// fakeBackend is an in-memory Backend with call counters.
type fakeBackend struct {
	mu        sync.Mutex
	docs      map[string]*Document
	fetches   int32
	searches  int32
	fetchErr  error
	searchErr error

	// block, when non-nil, is closed to release in-flight fetches.
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs: map[string]*Document{
			"1": {ID: "1", Title: "Annual Report", Status: "approved"},
			"2": {ID: "2", Title: "Budget Forecast", Status: "pending"},
		},
	}
}

func (f *fakeBackend) FetchDocument(ctx context.Context, id string) (*Document, error) {
	atomic.AddInt32(&f.fetches, 1)
	if f.block != nil {
		<-f.block
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.New("document not found")
	}
	// Return a snapshot so cached values never alias backend state.
	copied := *doc
	return &copied, nil
}

func (f *fakeBackend) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	atomic.AddInt32(&f.searches, 1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var hits []Document
	for _, doc := range f.docs {
		hits = append(hits, *doc)
	}
	return &SearchResult{Documents: hits, Page: req.page(), TotalPages: 1, TotalHits: len(hits)}, nil
}

func (f *fakeBackend) Upload(ctx context.Context, doc *Document, content []byte) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *doc
	saved.Status = "pending"
	f.docs[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeBackend) Approve(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return errors.New("document not found")
	}
	doc.Status = "approved"
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func newTestService(t *testing.T, backend Backend, cfg Config) (*Service, *cache.Store[any]) {
	t.Helper()
	store := cache.New(cache.DefaultConfig[any]())
	svc, err := New(backend, store, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc, store
}

func TestNew_Validation(t *testing.T) {
	store := cache.New(cache.DefaultConfig[any]())

	if _, err := New(nil, store, DefaultConfig()); err == nil {
		t.Error("New should reject nil backend")
	}
	if _, err := New(newFakeBackend(), nil, DefaultConfig()); err == nil {
		t.Error("New should reject nil store")
	}
}

func TestService_GetDocument_CachesResult(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	first, err := svc.GetDocument(ctx, "1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}

	second, err := svc.GetDocument(ctx, "1")
	if err != nil {
		t.Fatalf("GetDocument (cached) failed: %v", err)
	}

	if first.Title != second.Title {
		t.Errorf("cached document differs: %q vs %q", first.Title, second.Title)
	}
	if n := atomic.LoadInt32(&backend.fetches); n != 1 {
		t.Errorf("backend fetches = %d, want 1 (second read served from cache)", n)
	}
}

func TestService_GetDocument_ErrorNotCached(t *testing.T) {
	backend := newFakeBackend()
	backend.fetchErr = errors.New("storage unavailable")
	svc, store := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	if _, err := svc.GetDocument(ctx, "1"); err == nil {
		t.Fatal("expected backend error to propagate")
	}
	if snap := store.Stats(); snap.Size != 0 {
		t.Errorf("failed fetch must not populate the cache, Size = %d", snap.Size)
	}

	// Backend recovers; the next read must retry, not replay the error.
	backend.fetchErr = nil
	if _, err := svc.GetDocument(ctx, "1"); err != nil {
		t.Errorf("GetDocument after recovery failed: %v", err)
	}
}

func TestService_Search_CachesPage(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	req := SearchRequest{Query: "report", Page: 1}

	if _, err := svc.Search(ctx, req); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if _, err := svc.Search(ctx, req); err != nil {
		t.Fatalf("Search (cached) failed: %v", err)
	}

	if n := atomic.LoadInt32(&backend.searches); n != 1 {
		t.Errorf("backend searches = %d, want 1", n)
	}
}

func TestService_Search_FilterOrderSharesEntry(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	a := SearchRequest{Query: "report", Filters: map[string]string{"mime": "pdf", "status": "approved"}}
	b := SearchRequest{Query: "Report", Filters: map[string]string{"status": "approved", "mime": "pdf"}}

	if _, err := svc.Search(ctx, a); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if _, err := svc.Search(ctx, b); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if n := atomic.LoadInt32(&backend.searches); n != 1 {
		t.Errorf("backend searches = %d, want 1 (same logical request)", n)
	}
}

func TestService_SearchError_Propagates(t *testing.T) {
	backend := newFakeBackend()
	wantErr := errors.New("index offline")
	backend.searchErr = wantErr
	svc, _ := newTestService(t, backend, DefaultConfig())

	_, err := svc.Search(context.Background(), SearchRequest{Query: "report"})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want it to propagate unchanged", err)
	}
}

func TestService_Upload_InvalidatesSearches(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	req := SearchRequest{Query: "report"}
	if _, err := svc.Search(ctx, req); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if _, err := svc.Upload(ctx, &Document{ID: "3", Title: "New Report"}, []byte("content")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// The cached search page could now include the new document.
	if _, err := svc.Search(ctx, req); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if n := atomic.LoadInt32(&backend.searches); n != 2 {
		t.Errorf("backend searches = %d, want 2 (cache invalidated by upload)", n)
	}
}

func TestService_InvalidateDocument_ExactKey(t *testing.T) {
	backend := newFakeBackend()
	backend.docs["12"] = &Document{ID: "12", Title: "Audit Log", Status: "approved"}
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	if _, err := svc.GetDocument(ctx, "1"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if _, err := svc.GetDocument(ctx, "12"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}

	svc.InvalidateDocument("1")

	// Document 12 shares the "doc:1" key prefix but must stay cached.
	if _, err := svc.GetDocument(ctx, "12"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if n := atomic.LoadInt32(&backend.fetches); n != 2 {
		t.Errorf("backend fetches = %d, want 2 (doc:12 still cached)", n)
	}

	if _, err := svc.GetDocument(ctx, "1"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if n := atomic.LoadInt32(&backend.fetches); n != 3 {
		t.Errorf("backend fetches = %d, want 3 (doc:1 invalidated)", n)
	}
}

func TestService_Approve_InvalidatesDocument(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	doc, err := svc.GetDocument(ctx, "2")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if doc.Status != "pending" {
		t.Fatalf("Status = %q, want pending", doc.Status)
	}

	if err := svc.Approve(ctx, "2"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	doc, err = svc.GetDocument(ctx, "2")
	if err != nil {
		t.Fatalf("GetDocument after approve failed: %v", err)
	}
	if doc.Status != "approved" {
		t.Errorf("Status = %q, want approved (stale cache entry served)", doc.Status)
	}
}

func TestService_Delete_InvalidatesDocument(t *testing.T) {
	backend := newFakeBackend()
	svc, _ := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	if _, err := svc.GetDocument(ctx, "1"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if err := svc.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetDocument(ctx, "1"); err == nil {
		t.Error("GetDocument after Delete should miss the cache and fail at the backend")
	}
}

func TestService_InvalidateSearch_LeavesDocuments(t *testing.T) {
	backend := newFakeBackend()
	svc, store := newTestService(t, backend, DefaultConfig())
	ctx := context.Background()

	if _, err := svc.Search(ctx, SearchRequest{Query: "report", Page: 1}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if _, err := svc.GetDocument(ctx, "1"); err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}

	svc.InvalidateSearches()

	snap := store.Stats()
	if snap.Size != 1 {
		t.Errorf("Size = %d, want 1 (document entry survives)", snap.Size)
	}
	if len(snap.Keys) != 1 || snap.Keys[0] != "doc:1" {
		t.Errorf("Keys = %v, want [doc:1]", snap.Keys)
	}
}

func TestService_SingleFlight_CoalescesDuplicates(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})

	cfg := DefaultConfig()
	cfg.SingleFlight = true
	svc, _ := newTestService(t, backend, cfg)
	ctx := context.Background()

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Document, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetDocument(ctx, "1")
		}(i)
	}

	// Give all callers time to reach the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(backend.block)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] == nil || results[i].ID != "1" {
			t.Fatalf("caller %d got %v", i, results[i])
		}
	}
	if n := atomic.LoadInt32(&backend.fetches); n != 1 {
		t.Errorf("backend fetches = %d, want 1 (duplicates coalesced)", n)
	}
}
