package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/cache"
	"github.com/kailas-cloud/paperdex/internal/chunker"
	"github.com/kailas-cloud/paperdex/internal/config"
	dbRedis "github.com/kailas-cloud/paperdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/paperdex/internal/logger"
	"github.com/kailas-cloud/paperdex/internal/metrics"
	chunkindexrepo "github.com/kailas-cloud/paperdex/internal/repository/chunkindex"
	"github.com/kailas-cloud/paperdex/internal/repository/embcache"
	paperrepo "github.com/kailas-cloud/paperdex/internal/repository/paper"
	"github.com/kailas-cloud/paperdex/internal/transport/arxiv"
	chiTransport "github.com/kailas-cloud/paperdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/paperdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/paperdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/paperdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/paperdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/paperdex/internal/usecase/search"
	"github.com/kailas-cloud/paperdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting paperdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	// Embedder chain: OpenAI provider wrapped by a store-backed vector cache.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(baseEmbedder, store, metrics.EmbeddingCacheTotal, logger).
		WithTTL(time.Duration(cfg.Embedding.CacheTTLHrs) * time.Hour)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Provider:    cfg.Generation.Provider,
		Logger:      logger,
	})

	fetcher := arxiv.New(&arxiv.Config{
		BaseURL: cfg.Arxiv.BaseURL,
		Timeout: time.Duration(cfg.Arxiv.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Repositories
	papers := paperrepo.New(store)
	chunks := chunkindexrepo.New(store, cfg.Embedding.Dimensions).
		WithHNSW(chunkindexrepo.HNSWConfig{
			M:           cfg.Embedding.HNSWM,
			EFConstruct: cfg.Embedding.HNSWEFConstr,
		}).
		WithQueryTimeout(time.Duration(cfg.Search.QueryTimeoutSec) * time.Second)
	if err := chunks.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create chunk index", zap.Error(err))
	}
	logger.Info("Chunk index ready")

	gate := cache.NewGate(store, metrics.QueryCacheTotal, logger).
		WithTTL(time.Duration(cfg.Cache.QueryTTLMin) * time.Minute)

	splitter, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.Overlap, cfg.Ingest.MaxChunks)
	if err != nil {
		logger.Fatal("Invalid chunking parameters", zap.Error(err))
	}

	// Use case services
	searchSvc := searchuc.New(chunks, embedder).WithGate(gate)
	answerSvc := answeruc.New(searchSvc, generator, gate, logger).
		WithLimits(cfg.Generation.MaxTokens, cfg.Generation.ContextWords)
	ingestSvc := ingestuc.New(fetcher, papers, chunks, splitter, embedder, gate, logger).
		WithWorkers(cfg.Ingest.Workers)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(searchSvc, answerSvc, ingestSvc, healthSvc, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
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
