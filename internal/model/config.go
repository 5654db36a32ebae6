package model

import "time"

// Config is the full runtime configuration, loadable from
// ~/.leakbench/config.yaml and overridable via flags and env vars.
type Config struct {
	Docs        DocsConfig        `yaml:"docs"`
	Rates       RatesConfig       `yaml:"rates"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy"`
	HTTP        HTTPConfig        `yaml:"http"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Estimator   EstimatorConfig   `yaml:"estimator"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DocsConfig controls the document source
type DocsConfig struct {
	Dir          string `yaml:"dir"`           // directory of source documents
	ChunkSize    int    `yaml:"chunk_size"`    // max characters per oracle chunk
	ChunkOverlap int    `yaml:"chunk_overlap"` // overlap between chunks
}

// RatesConfig controls currency normalization
type RatesConfig struct {
	File string `yaml:"file"` // optional YAML rate table, built-ins used when empty

	// Currency assumed for ambiguous symbols, e.g. {"$": "USD", "¥": "CNY"}.
	// An unmapped ambiguous symbol fails closed: the evidence is marked
	// unnormalizable instead of guessed.
	SymbolCurrencies map[string]string `yaml:"symbol_currencies"`

	// Fallback policy when no rate covers the observed date:
	// "most_recent" uses the latest table entry, "none" excludes the evidence.
	Fallback string `yaml:"fallback"`
}

// TaxonomyConfig controls classification
type TaxonomyConfig struct {
	LexiconFile string `yaml:"lexicon_file"` // optional YAML lexicon, built-in used when empty
}

// HTTPConfig controls the curated-source fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`

	// Explicit proxies override the standard environment variables
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
}

// OracleConfig controls the optional extraction/pricing oracle
type OracleConfig struct {
	Provider string `yaml:"provider"` // "openai", "ollama", "" (disabled)
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`

	// Timeout bounds each oracle call; Retries bounds re-attempts before
	// a chunk is skipped.
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	MaxTokens int           `yaml:"max_tokens"`
}

// CacheConfig controls oracle response caching
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"` // disk cache location, memory-only when empty
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig controls parallel document processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig bounds outbound request rates
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// EstimatorConfig controls rule-based estimation
type EstimatorConfig struct {
	AllowNegativeVIP bool `yaml:"allow_negative_vip"`
}

// OutputConfig controls artifact and report output
type OutputConfig struct {
	EvidencePath  string `yaml:"evidence_path"`
	BenchmarkPath string `yaml:"benchmark_path"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig controls the zerolog logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Docs: DocsConfig{
			Dir:          "docs",
			ChunkSize:    3000,
			ChunkOverlap: 200,
		},
		Rates: RatesConfig{
			SymbolCurrencies: nil, // fail closed on "$" and "¥" by default
			Fallback:         "most_recent",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "leakbench/0.1 (+https://github.com/leakbench/leakbench)",
			MaxBodyBytes: 2_000_000,
		},
		Oracle: OracleConfig{
			Provider:  "", // disabled by default, pipeline is pattern-only
			Timeout:   30 * time.Second,
			Retries:   2,
			MaxTokens: 2000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0,
			Burst:             3,
		},
		Estimator: EstimatorConfig{
			AllowNegativeVIP: false,
		},
		Output: OutputConfig{
			EvidencePath:  "evidence.json",
			BenchmarkPath: "benchmark.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
