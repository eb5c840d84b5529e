// Command docstore-proxy serves documents and search results through the
// cached access layer, and exposes the cache monitor endpoints used by the
// performance widget.
package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arcstore/docstore-client/pkg/cache"
	"github.com/arcstore/docstore-client/pkg/client"
	"github.com/arcstore/docstore-client/pkg/logging"
	"github.com/arcstore/docstore-client/pkg/resource"
	"github.com/arcstore/docstore-client/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	docstoreURL := getEnv("DOCSTORE_URL", "http://localhost:9000")
	port := getEnv("PORT", "8080")

	// Single owned cache store, passed by handle to the service and the
	// monitor rather than reached as ambient global state.
	cacheCfg := cache.DefaultConfig[any]()
	cacheCfg.Capacity = getEnvInt("CACHE_CAPACITY", cacheCfg.Capacity)
	cacheCfg.Sizer = estimateSize
	store := cache.New(cacheCfg)

	backend, err := client.New(client.DefaultConfig(docstoreURL))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create docstore client")
	}

	svcCfg := resource.DefaultConfig()
	svcCfg.SingleFlight = true
	svc, err := resource.New(backend, store, svcCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create resource service")
	}

	reporter, err := telemetry.NewReporter(store, telemetry.DefaultConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache monitor")
	}
	reporter.Start()
	defer reporter.Stop()

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("docstore", docstoreURL).
		Msg("Starting docstore proxy")

	if err := http.ListenAndServe(addr, newMux(svc, reporter)); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// newMux builds the proxy routes over the service and monitor.
func newMux(svc *resource.Service, reporter *telemetry.Reporter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/documents/", documentHandler(svc))
	mux.HandleFunc("/search", searchHandler(svc))
	mux.HandleFunc("/cache/stats", statsHandler(reporter))
	mux.HandleFunc("/cache/clear", clearHandler(reporter))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func documentHandler(svc *resource.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/documents/")
		if id == "" {
			http.Error(w, "document id required", http.StatusBadRequest)
			return
		}

		doc, err := svc.GetDocument(r.Context(), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, doc)
	}
}

func searchHandler(svc *resource.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		req := resource.SearchRequest{
			Query:   query.Get("q"),
			Sort:    query.Get("sort"),
			Filters: make(map[string]string),
		}
		req.Page, _ = strconv.Atoi(query.Get("page"))
		req.PageSize, _ = strconv.Atoi(query.Get("per"))
		for key, values := range query {
			if name, ok := strings.CutPrefix(key, "f."); ok && len(values) > 0 {
				req.Filters[name] = values[0]
			}
		}

		result, err := svc.Search(r.Context(), req)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

// statsView is the JSON shape served to the monitoring widget.
type statsView struct {
	Size      int      `json:"size"`
	Keys      []string `json:"keys"`
	HitCount  uint64   `json:"hit_count"`
	MissCount uint64   `json:"miss_count"`
	Evictions uint64   `json:"evictions"`
	CacheSize string   `json:"cache_size"`
	Heap      string   `json:"heap"`
	Uptime    string   `json:"uptime"`
	SampledAt string   `json:"sampled_at"`
}

func statsHandler(reporter *telemetry.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := reporter.Snapshot()
		keys := snap.Cache.Keys
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, statsView{
			Size:      snap.Cache.Size,
			Keys:      keys,
			HitCount:  snap.Cache.HitCount,
			MissCount: snap.Cache.MissCount,
			Evictions: snap.Cache.EvictionCount,
			CacheSize: snap.CacheDisplay(),
			Heap:      snap.HeapDisplay(),
			Uptime:    snap.Uptime.Round(time.Second).String(),
			SampledAt: snap.SampledAt.Format(time.RFC3339),
		})
	}
}

func clearHandler(reporter *telemetry.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		reporter.ClearCache()
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
	}
}

func writeBackendError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

// estimateSize approximates an entry's memory footprint by its JSON size.
func estimateSize(v any) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
