// Hadisd serves hybrid retrieval over a hadith chunk index.
//
// The daemon segments uploaded documents into metadata-enriched chunks,
// embeds them via a TEI server, stores them in Qdrant or an embedded
// chromem database, and answers search queries with a fused
// vector-plus-keyword ranking.
//
// Usage:
//
//	# Start with defaults (embedded chromem store)
//	hadisd
//
//	# Point at a config file
//	hadisd -config /etc/hadisd/config.yaml
//
//	# Configure via environment
//	SERVER_PORT=9280 VECTORSTORE_PROVIDER=qdrant hadisd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/cache"
	"github.com/fikralabs/hadisd/internal/config"
	"github.com/fikralabs/hadisd/internal/embeddings"
	"github.com/fikralabs/hadisd/internal/history"
	"github.com/fikralabs/hadisd/internal/httpapi"
	"github.com/fikralabs/hadisd/internal/logging"
	"github.com/fikralabs/hadisd/internal/reranker"
	"github.com/fikralabs/hadisd/internal/retrieval"
	"github.com/fikralabs/hadisd/internal/segment"
	"github.com/fikralabs/hadisd/internal/telemetry"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hadisd %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	log.Println("shutdown complete")
}

// run wires the daemon together and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting hadisd",
		zap.String("version", version),
		zap.String("vectorstore", cfg.VectorStore.Provider),
	)

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ExportInterval: time.Duration(cfg.Telemetry.ExportInterval),
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		logger.Warn(ctx, "telemetry disabled, export setup failed", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tel.Shutdown(shutdownCtx)
		}()
	}

	provider, err := embeddings.NewTEIService(embeddings.Config{
		BaseURL:   cfg.Embeddings.BaseURL,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.Embeddings.Dimension,
		Timeout:   time.Duration(cfg.Embeddings.Timeout),
	})
	if err != nil {
		return fmt.Errorf("initializing embedding provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	index, err := vectorstore.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer func() { _ = index.Close() }()

	embedCache := cache.NewEmbeddingCache(
		time.Duration(cfg.Cache.EmbeddingTTL),
		cfg.Cache.MaxEntries,
		cfg.Cache.WarmPatterns,
	)
	embedCache.SetMetrics(cache.NewMetrics("embedding", logger.Underlying()))

	resultCache := cache.NewResultCache[retrieval.Hit](
		time.Duration(cfg.Cache.ResultTTL),
		cfg.Cache.MaxEntries,
	)
	resultCache.SetMetrics(cache.NewMetrics("result", logger.Underlying()))

	service := retrieval.NewService(
		provider,
		index,
		reranker.NewHybrid(reranker.Config{
			SimilarityWeight: cfg.Retrieval.Scoring.SimilarityWeight,
			KeywordWeight:    cfg.Retrieval.Scoring.KeywordWeight,
			RecordBoost:      cfg.Retrieval.Scoring.RecordBoost,
			AttributionBoost: cfg.Retrieval.Scoring.AttributionBoost,
			SourceWorkBoost:  cfg.Retrieval.Scoring.SourceWorkBoost,
			AuthenticBoost:   cfg.Retrieval.Scoring.AuthenticBoost,
			LengthBoost:      cfg.Retrieval.Scoring.LengthBoost,
			PhraseBoost:      cfg.Retrieval.Scoring.PhraseBoost,
			SimilarityFloor:  cfg.Retrieval.SimilarityFloor,
		}),
		embedCache,
		resultCache,
		retrieval.Options{
			TopK:       cfg.Retrieval.TopK,
			Oversample: cfg.Retrieval.Oversample,
		},
		logger,
	)

	indexer := retrieval.NewIndexer(
		segment.NewSegmenter(cfg.Segment.ChunkSize, cfg.Segment.Overlap),
		provider,
		index,
		logger,
	)

	var recorder *history.Recorder
	if cfg.History.Enabled {
		recorder = history.NewRecorder(history.Config{
			QueueSize: cfg.History.QueueSize,
		}, logger)
		recorder.Start(ctx)
		defer recorder.Stop()
	}

	server, err := httpapi.NewServer(service, indexer, recorder, logger, httpapi.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout),
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
