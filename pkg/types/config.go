// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the academic search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the default number of results per backend call (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Categories restricts arXiv listings (default cs.LG, cs.AI, cs.CL, cs.CV, cs.IR, stat.ML).
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as mailto for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// GatewayConfig holds settings for the external-tool gateway.
type GatewayConfig struct {
	// Timeout bounds a single tool invocation (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries bounds retries on 429/5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RatePerSecond and Burst configure the per-tool rate limiter.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `json:"burst" yaml:"burst" mapstructure:"burst"`

	// FailureThreshold is the number of consecutive failures that opens a
	// tool's circuit breaker (default 5).
	FailureThreshold uint32 `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// OpenTimeout is how long a breaker stays open before probing (default 30s).
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout" mapstructure:"open_timeout"`

	// DefaultTool is used when coverage triggers augmentation (default "arxiv_latest").
	DefaultTool string `json:"default_tool" yaml:"default_tool" mapstructure:"default_tool"`

	// ResultLimit is the number of results requested from the tool (default 10).
	ResultLimit int `json:"result_limit" yaml:"result_limit" mapstructure:"result_limit"`

	// RecentDays bounds the arxiv_latest listing window (default 7).
	RecentDays int `json:"recent_days" yaml:"recent_days" mapstructure:"recent_days"`
}

// RerankConfig holds settings for the reranking engine.
type RerankConfig struct {
	// Strategy is one of cross_encoder, semantic_diversity, ensemble (default ensemble).
	Strategy RerankStrategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`

	// TopK is the number of ranked results kept (default 20).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// DiversityLambda multiplies the relevance term in MMR (default 0.3).
	DiversityLambda float64 `json:"diversity_lambda" yaml:"diversity_lambda" mapstructure:"diversity_lambda"`

	// EnsembleStrategies and EnsembleWeights define the ensemble members.
	EnsembleStrategies []RerankStrategy `json:"ensemble_strategies" yaml:"ensemble_strategies" mapstructure:"ensemble_strategies"`
	EnsembleWeights    []float64        `json:"ensemble_weights" yaml:"ensemble_weights" mapstructure:"ensemble_weights"`

	// ScorerURL is the base URL of the cross-encoder service. Empty disables
	// the cross-encoder, which then falls back to score sorting.
	ScorerURL string `json:"scorer_url" yaml:"scorer_url" mapstructure:"scorer_url"`

	// ScorerTimeout bounds a cross-encoder call (default 30s).
	ScorerTimeout time.Duration `json:"scorer_timeout" yaml:"scorer_timeout" mapstructure:"scorer_timeout"`
}

// CoverageConfig controls when external augmentation is triggered.
type CoverageConfig struct {
	// Threshold is the coverage score below which augmentation runs (default 0.5).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// Enabled globally allows external augmentation (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// ResearchConfig holds research workflow defaults.
type ResearchConfig struct {
	// RetrievalLimit is the number of candidates fetched from the vector store (default 50).
	RetrievalLimit int `json:"retrieval_limit" yaml:"retrieval_limit" mapstructure:"retrieval_limit"`

	// AnalysisType is the default analysis type (default comprehensive).
	AnalysisType AnalysisType `json:"analysis_type" yaml:"analysis_type" mapstructure:"analysis_type"`

	// ContextResults is the number of ranked results given to analyses (default 10).
	ContextResults int `json:"context_results" yaml:"context_results" mapstructure:"context_results"`
}

// IngestionConfig holds ingestion workflow settings.
type IngestionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DaysBack is the default discovery window in days (default 7, range 1-365).
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// MaxResults is the default number of papers to discover (default 100, range 1-1000).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// PapersDir is the directory PDFs are downloaded into (default "papers/raw").
	PapersDir string `json:"papers_dir" yaml:"papers_dir" mapstructure:"papers_dir"`

	// ChunkTokens and ChunkOverlap size the chunk windows (default 300 / 50).
	ChunkTokens  int `json:"chunk_tokens" yaml:"chunk_tokens" mapstructure:"chunk_tokens"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap"`

	// Converter selects the PDF text extractor: pdftotext or markitdown (default pdftotext).
	Converter string `json:"converter" yaml:"converter" mapstructure:"converter"`

	// DownloadDelay is the pause between consecutive PDF downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`
}

// AIConfig holds settings for the LLM text generator.
type AIConfig struct {
	// Provider selects the generator: claude or ollama (default ollama).
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	// Empty selects the provider's default model.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (Ollama only).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single generation call (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig holds settings for the embedding service.
type EmbeddingConfig struct {
	BaseURL     string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Model       string `json:"model" yaml:"model" mapstructure:"model"`
	Dimension   int    `json:"dimension" yaml:"dimension" mapstructure:"dimension"`
	Concurrency int    `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig holds settings for the Redis embedding cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Addr    string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	DB      int           `json:"db" yaml:"db" mapstructure:"db"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// VectorStoreConfig holds Qdrant connection settings.
type VectorStoreConfig struct {
	// Addr is host:port of the Qdrant gRPC endpoint (default localhost:6334).
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Collection is the collection name (default "ai_core").
	Collection string `json:"collection" yaml:"collection" mapstructure:"collection"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// MetadataConfig selects the relational metadata store.
type MetadataConfig struct {
	// Driver is sqlite3 or postgres (default sqlite3).
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the data source name; for sqlite3 a file path.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups every component configuration.
type Config struct {
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Gateway     GatewayConfig     `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Rerank      RerankConfig      `json:"rerank" yaml:"rerank" mapstructure:"rerank"`
	Coverage    CoverageConfig    `json:"coverage" yaml:"coverage" mapstructure:"coverage"`
	Research    ResearchConfig    `json:"research" yaml:"research" mapstructure:"research"`
	Ingestion   IngestionConfig   `json:"ingestion" yaml:"ingestion" mapstructure:"ingestion"`
	LLM         AIConfig          `json:"llm" yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Cache       CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store" mapstructure:"vector_store"`
	Metadata    MetadataConfig    `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
}

// DefaultUserAgent is sent by every HTTP client unless overridden.
const DefaultUserAgent = "research-agent/0.1"

// DefaultCategories are the arXiv categories listed during ingestion.
var DefaultCategories = []string{"cs.LG", "cs.AI", "cs.CL", "cs.CV", "cs.IR", "stat.ML"}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: DefaultUserAgent},
			MaxResults: 20,
			Categories: append([]string(nil), DefaultCategories...),
		},
		Gateway: GatewayConfig{
			Timeout:          30 * time.Second,
			MaxRetries:       3,
			RatePerSecond:    1,
			Burst:            3,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			DefaultTool:      "arxiv_latest",
			ResultLimit:      10,
			RecentDays:       7,
		},
		Rerank: RerankConfig{
			Strategy:           StrategyEnsemble,
			TopK:               20,
			DiversityLambda:    0.3,
			EnsembleStrategies: []RerankStrategy{StrategyCrossEncoder, StrategyDiversity},
			EnsembleWeights:    []float64{0.6, 0.4},
			ScorerTimeout:      30 * time.Second,
		},
		Coverage: CoverageConfig{Threshold: 0.5, Enabled: true},
		Research: ResearchConfig{
			RetrievalLimit: 50,
			AnalysisType:   AnalysisComprehensive,
			ContextResults: 10,
		},
		Ingestion: IngestionConfig{
			HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent},
			DaysBack:      7,
			MaxResults:    100,
			PapersDir:     "papers/raw",
			ChunkTokens:   300,
			ChunkOverlap:  50,
			Converter:     "pdftotext",
			DownloadDelay: time.Second,
		},
		LLM: AIConfig{
			Provider:   "ollama",
			MaxRetries: 3,
			Timeout:    2 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "nomic-embed-text",
			Dimension:   768,
			Concurrency: 4,
		},
		Cache: CacheConfig{Addr: "localhost:6379", TTL: time.Hour},
		VectorStore: VectorStoreConfig{
			Addr:       "localhost:6334",
			Collection: "ai_core",
		},
		Metadata: MetadataConfig{Driver: "sqlite3", DSN: "papers/research.db"},
	}
}
