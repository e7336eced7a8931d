package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkoenen/fieldsearch/internal/search"
	"github.com/nkoenen/fieldsearch/internal/search/cache"
	"github.com/nkoenen/fieldsearch/internal/search/handler"
	"github.com/nkoenen/fieldsearch/internal/stats"
	"github.com/nkoenen/fieldsearch/pkg/config"
	"github.com/nkoenen/fieldsearch/pkg/health"
	"github.com/nkoenen/fieldsearch/pkg/logger"
	"github.com/nkoenen/fieldsearch/pkg/metrics"
	"github.com/nkoenen/fieldsearch/pkg/middleware"
	pkgredis "github.com/nkoenen/fieldsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	query := flag.String("query", "", "run one query against the index and exit")
	flag.StringVar(query, "q", "", "shorthand for --query")
	topK := flag.Int("top-k", 0, "result count for --query mode (0 uses the configured default)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	engine, err := search.Load(cfg)
	if err != nil {
		slog.Error("failed to load search engine", "error", err)
		os.Exit(1)
	}
	slog.Info("index loaded", "data_dir", cfg.Index.DataDir, "doc_count", engine.DocCount())

	if *query != "" {
		runOnce(engine, cfg, *query, *topK)
		return
	}

	slog.Info("starting search service", "port", cfg.Server.Port)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := stats.NewAggregator()
	collector := stats.NewCollector(aggregator, 10000)
	collector.Start(ctx)
	defer collector.Close()
	statsH := stats.NewHandler(aggregator)

	m := metrics.New()
	m.IndexDocCount.Set(float64(engine.DocCount()))
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if engine.DocCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents", engine.DocCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty index"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(engine, queryCache, collector, m)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/stats", statsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}

// runOnce serves the one-shot CLI mode: evaluate a single query and print
// the ranked results to stdout.
func runOnce(engine *search.Engine, cfg *config.Config, query string, topK int) {
	opts := search.Options{
		TopK:          topK,
		BoostField:    cfg.Search.BoostField,
		BoostStrength: cfg.Search.BoostStrength,
	}
	results, err := engine.Search(context.Background(), query, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(engine.FormatResults(query, results))
}
