package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/config"
	"github.com/kailas-cloud/grantmatch/internal/db"
	"github.com/kailas-cloud/grantmatch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/grantmatch/internal/db/redis"
	"github.com/kailas-cloud/grantmatch/internal/domain"
	logpkg "github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
	chunkrepo "github.com/kailas-cloud/grantmatch/internal/repository/chunk"
	"github.com/kailas-cloud/grantmatch/internal/repository/embcache"
	grantrepo "github.com/kailas-cloud/grantmatch/internal/repository/grant"
	jobrepo "github.com/kailas-cloud/grantmatch/internal/repository/job"
	summaryrepo "github.com/kailas-cloud/grantmatch/internal/repository/summary"
	chiTransport "github.com/kailas-cloud/grantmatch/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/grantmatch/internal/transport/openai"
	"github.com/kailas-cloud/grantmatch/internal/usecase/classify"
	"github.com/kailas-cloud/grantmatch/internal/usecase/discovery"
	embeddinguc "github.com/kailas-cloud/grantmatch/internal/usecase/embedding"
	"github.com/kailas-cloud/grantmatch/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/grantmatch/internal/usecase/health"
	jobuc "github.com/kailas-cloud/grantmatch/internal/usecase/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/search"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
	"github.com/kailas-cloud/grantmatch/internal/version"
)

const embeddingProvider = "openai"

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting grantmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.Index.Addrs),
		zap.String("classifier", cfg.Classifier.Strategy),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()

	ctx := context.Background()

	// Search index
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:          cfg.Index.Addrs,
		Password:       cfg.Index.Password,
		RequestTimeout: cfg.IndexRequestTimeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search index not ready", zap.Error(err))
	}
	if cfg.Index.EnsureIndex {
		def, err := db.ChunkIndex(cfg.Index.Name, cfg.Index.KeyPrefix,
			cfg.Index.Dimensions, cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct)
		if err != nil {
			logger.Fatal("Invalid chunk index definition", zap.Error(err))
		}
		if err := dbRedis.EnsureIndex(ctx, store, def); err != nil {
			logger.Fatal("Failed to ensure chunk index", zap.Error(err))
		}
	}
	logger.Info("Connected to search index", zap.String("index", cfg.Index.Name))

	// Structured metadata store and job table
	var (
		pool   *pgxpool.Pool
		grants *grantrepo.Repo
		jobs   jobuc.Store
	)
	if cfg.Postgres.URL != "" {
		if cfg.Postgres.Migrate {
			if err := postgres.RunMigrations(cfg.Postgres.URL); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		pool, err = postgres.Connect(ctx, postgres.Config{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		grants = grantrepo.New(pool)
		if cfg.Postgres.JobsTable != "" {
			jobs = jobrepo.New(pool, cfg.Postgres.JobsTable)
		}
		logger.Info("Connected to postgres", zap.Bool("jobs_configured", jobs != nil))
	} else {
		logger.Warn("postgres.url not set, structured filters and search jobs disabled")
	}

	// Summary documents
	summaries, err := summaryrepo.Open(cfg.Summaries.Dir, cfg.Summaries.InMemory, logger)
	if err != nil {
		logger.Fatal("Failed to open summary store", zap.Error(err))
	}
	defer func() { _ = summaries.Close() }()

	// Embeddings: OpenAI -> Cached -> Instruction
	embedder := buildEmbedder(ctx, cfg.Embedding, store, logger)

	classifier, err := buildClassifier(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create classifier", zap.Error(err))
	}

	// Filter values come from active grants; without postgres the cache stays empty.
	var values filter.ValueSource
	if grants != nil {
		values = grants
	}
	resolver := filter.NewResolver(filter.NewCache(values, cfg.FilterCache.TTL))

	engine := search.NewEngine(chunkrepo.New(store, cfg.Index.Name), cfg.Index.K)

	workers, err := jobuc.NewPool(cfg.Jobs.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer workers.Release()

	coordinator := jobuc.NewCoordinator(jobs, discovery.NewSemanticStage(embedder, engine), workers,
		jobuc.WithStageTimeout(cfg.StageTimeout()),
		jobuc.WithLogger(logger),
	)

	recommender := similar.NewRecommender(summaries)

	deps := discovery.Deps{
		Classifier:  classifier,
		Resolver:    resolver,
		Engine:      engine,
		Jobs:        coordinator,
		Recommender: recommender,
	}
	// Avoid typed-nil interfaces for optional collaborators.
	if grants != nil {
		deps.Grants = grants
	}
	if embedder != nil {
		deps.Embedder = embedder
	}
	disc := discovery.New(deps)

	var pgPinger healthuc.Pinger
	if grants != nil {
		pgPinger = grants
	}
	var embChecker healthuc.EmbeddingChecker
	if embedder != nil {
		embChecker = newEmbeddingHealthChecker(embedder)
	}
	healthSvc := healthuc.New(store, pgPinger, embChecker)

	server := chiTransport.NewServer(disc, coordinator, recommender, healthSvc, logger)
	handler := chiTransport.NewRouter(server, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Budget -> Cached -> Instruction.
// It returns nil when no API key is configured; search then runs lexical only.
func buildEmbedder(
	ctx context.Context, cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger,
) domain.Embedder {
	if cfg.APIKey == "" {
		logger.Warn("embedding.api_key not set, vector channel disabled")
		return nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		// Counters live in the index KV store so replicas share one budget.
		budget := embeddinguc.NewBudget(embeddingProvider,
			cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			embeddinguc.Action(cfg.Budget.Action), logger,
			embeddinguc.WithCounterStore(store),
		)
		budget.Load(ctx)
		embedder = embeddinguc.NewGuardedEmbedder(embedder, embeddingProvider, budget, logger)
	}
	// Cache hits sit outside the budget and cost no tokens.
	if cfg.Cache {
		embedder = embcache.New(embedder, store, embcache.DefaultTTL, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix is outermost so the cache key includes it.
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Bool("cache", cfg.Cache),
		zap.Int64("daily_token_limit", cfg.Budget.DailyTokenLimit),
	)
	return embedder
}

func buildClassifier(cfg config.Config, logger *zap.Logger) (classify.Classifier, error) {
	timeout := time.Duration(cfg.Classifier.TimeoutSec) * time.Second
	if cfg.Classifier.Strategy != classify.StrategyLLM {
		return classify.New(cfg.Classifier.Strategy, nil, timeout)
	}
	router := openaiTransport.NewToolRouter(&openaiTransport.Config{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Classifier.Model,
		Provider: embeddingProvider,
		Logger:   logger,
	})
	c, err := classify.New(cfg.Classifier.Strategy, router, timeout)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return c, nil
}
