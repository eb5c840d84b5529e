package resource

import (
	"context"
	"time"
)

// Document is the metadata record for a stored document.
// Cached documents are immutable snapshots; callers must copy before mutating.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     string    `json:"status"` // "pending", "approved", "rejected"
	UploadedBy string    `json:"uploaded_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SearchRequest describes one logical search query.
type SearchRequest struct {
	Query    string            `json:"query"`
	Filters  map[string]string `json:"filters,omitempty"`
	Sort     string            `json:"sort,omitempty"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Documents  []Document `json:"documents"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	TotalHits  int        `json:"total_hits"`
}

// Backend is the underlying fetch/search collaborator the service wraps.
// Any error a backend call returns is propagated to the caller unchanged
// and is never cached.
type Backend interface {
	// FetchDocument retrieves document metadata by id.
	FetchDocument(ctx context.Context, id string) (*Document, error)

	// Search executes a search query and returns the requested page.
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)

	// Upload stores a new document and returns the saved record.
	Upload(ctx context.Context, doc *Document, content []byte) (*Document, error)

	// Approve marks a pending document as approved.
	Approve(ctx context.Context, id string) error

	// Delete removes a document.
	Delete(ctx context.Context, id string) error
}
