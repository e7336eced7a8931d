package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nkoenen/fieldsearch/internal/search"
	"github.com/nkoenen/fieldsearch/internal/search/cache"
	"github.com/nkoenen/fieldsearch/internal/stats"
	pkgerrors "github.com/nkoenen/fieldsearch/pkg/errors"
	"github.com/nkoenen/fieldsearch/pkg/logger"
	"github.com/nkoenen/fieldsearch/pkg/metrics"
	"github.com/nkoenen/fieldsearch/pkg/middleware"
)

// Searcher evaluates one query. Implemented by search.Engine.
type Searcher interface {
	Search(ctx context.Context, rawQuery string, opts search.Options) ([]search.Result, error)
	Meta(docID int) map[string]string
}

type Handler struct {
	engine    Searcher
	cache     *cache.QueryCache
	collector *stats.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(engine Searcher, queryCache *cache.QueryCache, collector *stats.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:    engine,
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search serves GET /api/v1/search. Query parameters: q (required), top_k,
// boost_field, boost_strength.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts := search.Options{}
	if v := r.URL.Query().Get("top_k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		opts.TopK = parsed
	}
	if v := r.URL.Query().Get("boost_field"); v != "" {
		opts.BoostField = v
	}
	if v := r.URL.Query().Get("boost_strength"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "boost_strength must be a number")
			return
		}
		opts.BoostStrength = parsed
	}

	var resp *search.Response
	var err error
	cacheHit := false

	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, query, opts, func() (*search.Response, error) {
			return h.execute(ctx, query, opts)
		})
	} else {
		resp, err = h.execute(ctx, query, opts)
	}

	if err != nil {
		status := pkgerrors.HTTPStatusCode(err)
		if status >= 500 {
			log.Error("search failed", "query", query, "error", err)
			h.observe("error", cacheHit, start, 0)
			h.writeError(w, status, "search failed")
			return
		}
		log.Warn("search rejected", "query", query, "error", err)
		h.observe("error", cacheHit, start, 0)
		h.writeError(w, status, err.Error())
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", query,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	resultType := "miss"
	if cacheHit {
		resultType = "hit"
	}
	if resp.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheHit, start, len(resp.Results))

	if h.collector != nil {
		eventType := stats.EventCacheMiss
		if cacheHit {
			eventType = stats.EventCacheHit
		}
		if resp.TotalHits == 0 {
			eventType = stats.EventZeroResult
		}
		h.collector.Track(stats.SearchEvent{
			Type:      eventType,
			Query:     query,
			TotalHits: resp.TotalHits,
			Returned:  len(resp.Results),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// execute runs the engine and assembles the response, attaching stored
// fields per hit. The ontology pseudo-document has no stored record; its
// hit carries a nil field map.
func (h *Handler) execute(ctx context.Context, query string, opts search.Options) (*search.Response, error) {
	results, err := h.engine.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	hits := make([]search.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, search.Hit{Result: r, Fields: h.engine.Meta(r.DocID)})
	}
	return &search.Response{Query: query, TotalHits: len(hits), Results: hits}, nil
}

func (h *Handler) observe(resultType string, cacheHit bool, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
