// Package config provides configuration loading for hadisd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. Defaults are applied for anything left unset.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete hadisd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Qdrant      QdrantConfig      `koanf:"qdrant"`
	Segment     SegmentConfig     `koanf:"segment"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Cache       CacheConfig       `koanf:"cache"`
	History     HistoryConfig     `koanf:"history"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	RequestTimeout  Duration `koanf:"request_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// BaseURL is the TEI endpoint.
	BaseURL string `koanf:"base_url"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// Dimension is the embedding vector size produced by the model.
	Dimension int `koanf:"dimension"`
	// Timeout bounds a single embed call.
	Timeout Duration `koanf:"timeout"`
}

// VectorStoreConfig selects and configures the vector index backend.
type VectorStoreConfig struct {
	// Provider is "qdrant" or "chromem".
	Provider string `koanf:"provider"`
	// Chromem holds embedded-store settings (chromem provider only).
	Chromem ChromemConfig `koanf:"chromem"`
}

// ChromemConfig holds embedded chromem-go store settings.
type ChromemConfig struct {
	// Path is the persistence directory. Empty means in-memory.
	Path string `koanf:"path"`
	// Collection is the collection name.
	Collection string `koanf:"collection"`
}

// QdrantConfig holds Qdrant gRPC client settings.
type QdrantConfig struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port"`
	UseTLS         bool     `koanf:"use_tls"`
	APIKey         Secret   `koanf:"api_key"`
	Collection     string   `koanf:"collection"`
	RequestTimeout Duration `koanf:"request_timeout"`
	RetryAttempts  int      `koanf:"retry_attempts"`
}

// SegmentConfig holds text segmentation settings.
type SegmentConfig struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int `koanf:"chunk_size"`
	// Overlap is the repeated character count between window chunks.
	Overlap int `koanf:"overlap"`
}

// RetrievalConfig holds search pipeline settings.
type RetrievalConfig struct {
	// TopK is the number of results returned to the caller.
	TopK int `koanf:"top_k"`
	// Oversample multiplies TopK for the index query, leaving headroom
	// for floor filtering and re-ranking.
	Oversample int `koanf:"oversample"`
	// SimilarityFloor excludes candidates before fusion. Kept below the
	// effective acceptance level so high-keyword matches survive.
	SimilarityFloor float64 `koanf:"similarity_floor"`
	Scoring         ScoringConfig `koanf:"scoring"`
}

// ScoringConfig holds hybrid score fusion weights and boosts.
// Values are empirically chosen defaults, not fixed law.
type ScoringConfig struct {
	SimilarityWeight float64 `koanf:"similarity_weight"`
	KeywordWeight    float64 `koanf:"keyword_weight"`
	RecordBoost      float64 `koanf:"record_boost"`
	AttributionBoost float64 `koanf:"attribution_boost"`
	SourceWorkBoost  float64 `koanf:"source_work_boost"`
	AuthenticBoost   float64 `koanf:"authentic_boost"`
	LengthBoost      float64 `koanf:"length_boost"`
	PhraseBoost      float64 `koanf:"phrase_boost"`
}

// CacheConfig holds the two cache tiers' settings.
type CacheConfig struct {
	EmbeddingTTL     Duration `koanf:"embedding_ttl"`
	ResultTTL        Duration `koanf:"result_ttl"`
	MaxEntries       int      `koanf:"max_entries"`
	// WarmPatterns are common query terms whose embeddings are retained
	// beyond normal expiry and survive cache clears.
	WarmPatterns []string `koanf:"warm_patterns"`
}

// HistoryConfig holds the background search-history writer settings.
type HistoryConfig struct {
	Enabled   bool `koanf:"enabled"`
	QueueSize int  `koanf:"queue_size"`
}

// TelemetryConfig holds OTLP metric export settings. Export is off
// until an operator enables it.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Insecure       bool     `koanf:"insecure"`
	ExportInterval Duration `koanf:"export_interval"`
	ServiceName    string   `koanf:"service_name"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.VectorStore.Provider {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("%w: unknown vectorstore provider %q", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidConfig)
	}
	if c.Segment.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.Segment.Overlap < 0 || c.Segment.Overlap >= c.Segment.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, chunk_size)", ErrInvalidConfig, c.Segment.Overlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.Oversample < 1 {
		return fmt.Errorf("%w: oversample must be at least 1", ErrInvalidConfig)
	}
	if c.Retrieval.SimilarityFloor < 0 || c.Retrieval.SimilarityFloor > 1 {
		return fmt.Errorf("%w: similarity_floor must be in [0,1]", ErrInvalidConfig)
	}
	s := c.Retrieval.Scoring
	if s.SimilarityWeight < 0 || s.KeywordWeight < 0 {
		return fmt.Errorf("%w: scoring weights cannot be negative", ErrInvalidConfig)
	}
	if s.SimilarityWeight+s.KeywordWeight > 1 {
		return fmt.Errorf("%w: similarity_weight + keyword_weight must not exceed 1", ErrInvalidConfig)
	}
	for _, p := range c.Cache.WarmPatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: warm pattern cannot be blank", ErrInvalidConfig)
		}
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9180
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = Duration(15 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.Dimension == 0 {
		cfg.Embeddings.Dimension = 384
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = Duration(10 * time.Second)
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Chromem.Collection == "" {
		cfg.VectorStore.Chromem.Collection = "hadis_chunks"
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "hadis_chunks"
	}
	if cfg.Qdrant.RequestTimeout == 0 {
		cfg.Qdrant.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.Qdrant.RetryAttempts == 0 {
		cfg.Qdrant.RetryAttempts = 3
	}

	if cfg.Segment.ChunkSize == 0 {
		cfg.Segment.ChunkSize = 800
	}
	if cfg.Segment.Overlap == 0 {
		cfg.Segment.Overlap = 150
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.Oversample == 0 {
		cfg.Retrieval.Oversample = 3
	}
	if cfg.Retrieval.SimilarityFloor == 0 {
		cfg.Retrieval.SimilarityFloor = 0.55
	}
	sc := &cfg.Retrieval.Scoring
	if sc.SimilarityWeight == 0 {
		sc.SimilarityWeight = 0.7
	}
	if sc.KeywordWeight == 0 {
		sc.KeywordWeight = 0.3
	}
	if sc.RecordBoost == 0 {
		sc.RecordBoost = 0.05
	}
	if sc.AttributionBoost == 0 {
		sc.AttributionBoost = 0.05
	}
	if sc.SourceWorkBoost == 0 {
		sc.SourceWorkBoost = 0.05
	}
	if sc.AuthenticBoost == 0 {
		sc.AuthenticBoost = 0.10
	}
	if sc.LengthBoost == 0 {
		sc.LengthBoost = 0.05
	}
	if sc.PhraseBoost == 0 {
		sc.PhraseBoost = 0.10
	}

	if cfg.Cache.EmbeddingTTL == 0 {
		cfg.Cache.EmbeddingTTL = Duration(60 * time.Minute)
	}
	if cfg.Cache.ResultTTL == 0 {
		cfg.Cache.ResultTTL = Duration(60 * time.Minute)
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 4096
	}

	if cfg.History.QueueSize == 0 {
		cfg.History.QueueSize = 256
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = Duration(15 * time.Second)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "hadisd"
	}
}
