// Package testutil provides testing utilities for the docstore client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock docstore endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockDocstore is a configurable mock docstore API server for testing.
type MockDocstore struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount    int
	LastRequestPath string
	LastRequest     *http.Request
}

// NewMockDocstore creates a new mock docstore server.
func NewMockDocstore() *MockDocstore {
	mock := &MockDocstore{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestPath = r.URL.Path
		mock.LastRequest = r
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockDocstore) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDocstore) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockDocstore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestPath = ""
	m.LastRequest = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockDocstore) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockDocstore) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDocument configures a document metadata response for an id.
func (m *MockDocstore) SetDocument(id string, body string) {
	m.SetResponse("/v1/documents/"+id, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

// SetSearchResponse configures the search endpoint response.
func (m *MockDocstore) SetSearchResponse(body string) {
	m.SetResponse("/v1/search", MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockDocstore) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockDocstore) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}
