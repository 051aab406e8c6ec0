// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig configures one C1 source client. Enabled, Tier and the rate
// window are read by the waterfall and the fetcher's per-host limiter;
// APIKey and Email are resolved from config first, then (for core,
// unpaywall and openalex) from the loaded secrets core-api-key,
// unpaywall-email and openalex-email.
type SourceConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Tier           int    `json:"tier" yaml:"tier"`
	RatePerWindow  int    `json:"rate_per_window" yaml:"rate_per_window"`
	WindowSeconds  int    `json:"window_seconds" yaml:"window_seconds"`
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty"`
	ProxyTemplate  string `json:"proxy_template,omitempty" yaml:"proxy_template,omitempty"`
}

// FetcherConfig configures the shared HTTP Fetcher (C2).
type FetcherConfig struct {
	HTTPConfig `yaml:",inline"`

	MaxRetries    int     `json:"max_retries" yaml:"max_retries"`
	RetryBackoffS float64 `json:"retry_backoff_s" yaml:"retry_backoff_s"`
	TimeoutS      float64 `json:"timeout_s" yaml:"timeout_s"`
	MaxPDFBytes   int64   `json:"max_pdf_bytes" yaml:"max_pdf_bytes"`
	MinPDFBytes   int64   `json:"min_pdf_bytes" yaml:"min_pdf_bytes"`
	CookieJarPath string  `json:"cookie_jar_path" yaml:"cookie_jar_path"`
}

// CoordinatorConfig configures the Pipeline Coordinator (C9).
type CoordinatorConfig struct {
	MaxConcurrentDownloads            int     `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads"`
	MaxConcurrentPublicationsPerDataset int   `json:"max_concurrent_publications_per_dataset" yaml:"max_concurrent_publications_per_dataset"`
	PerPublicationTimeoutS             float64 `json:"per_publication_timeout_s" yaml:"per_publication_timeout_s"`
	PerDatasetTimeoutS                 float64 `json:"per_dataset_timeout_s" yaml:"per_dataset_timeout_s"`
}

// CacheConfig configures the Dataset Hot Cache (C8) and, where sizes
// overlap, the Parsed-Content Cache's memory tier (C6).
type CacheConfig struct {
	MaxSize    int `json:"max_size" yaml:"max_size"`
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// FeatureFlags gates optional or risky behaviors.
type FeatureFlags struct {
	EnableLastResortMirrors bool `json:"enable_last_resort_mirrors" yaml:"enable_last_resort_mirrors"`
}

// EngineConfig is the root configuration for the acquisition and
// persistence engine, populated by Viper from a config file, environment
// variables, and defaults (see SPEC_FULL.md §10).
type EngineConfig struct {
	PDFRoot         string `json:"pdf_root" yaml:"pdf_root"`
	ParsedCacheRoot string `json:"parsed_cache_root" yaml:"parsed_cache_root"`
	DatabaseURL     string `json:"database_url" yaml:"database_url"`

	Sources     map[string]SourceConfig `json:"sources" yaml:"sources"`
	Fetcher     FetcherConfig           `json:"fetcher" yaml:"fetcher"`
	Coordinator CoordinatorConfig       `json:"coordinator" yaml:"coordinator"`
	Cache       CacheConfig             `json:"cache" yaml:"cache"`
	Features    FeatureFlags            `json:"features" yaml:"features"`
}

// DefaultEngineConfig returns the documented defaults for every knob in
// SPEC_FULL.md §6, with the default tier ordering from §4.1/§6 applied to
// the known source names.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PDFRoot:         "data/pdfs",
		ParsedCacheRoot: "data/parsed",
		DatabaseURL:     "file:data/index/geo-engine.db?_journal_mode=WAL&_foreign_keys=on",
		Sources: map[string]SourceConfig{
			"institutional": {Enabled: true, Tier: 1, RatePerWindow: 10, WindowSeconds: 60},
			"europepmc":     {Enabled: true, Tier: 2, RatePerWindow: 10, WindowSeconds: 1},
			"pmc":           {Enabled: true, Tier: 2, RatePerWindow: 3, WindowSeconds: 1},
			"unpaywall":     {Enabled: true, Tier: 2, RatePerWindow: 10, WindowSeconds: 1},
			"core":          {Enabled: true, Tier: 3, RatePerWindow: 10, WindowSeconds: 60},
			"openalex":      {Enabled: true, Tier: 4, RatePerWindow: 10, WindowSeconds: 1},
			"crossref":      {Enabled: true, Tier: 5, RatePerWindow: 50, WindowSeconds: 1},
			"biorxiv":       {Enabled: true, Tier: 6, RatePerWindow: 5, WindowSeconds: 1},
			"arxiv":         {Enabled: true, Tier: 6, RatePerWindow: 3, WindowSeconds: 1},
			"doaj":          {Enabled: true, Tier: 6, RatePerWindow: 5, WindowSeconds: 1},
			"mirror-a":      {Enabled: false, Tier: 7, RatePerWindow: 1, WindowSeconds: 5},
			"mirror-b":      {Enabled: false, Tier: 8, RatePerWindow: 1, WindowSeconds: 5},
		},
		Fetcher: FetcherConfig{
			HTTPConfig:    HTTPConfig{Timeout: 30 * time.Second, UserAgent: "geo-engine/0.1 (+mesh-intelligence)"},
			MaxRetries:    3,
			RetryBackoffS: 1,
			TimeoutS:      30,
			MaxPDFBytes:   100 << 20,
			MinPDFBytes:   1024,
			CookieJarPath: "data/cookies.json",
		},
		Coordinator: CoordinatorConfig{
			MaxConcurrentDownloads:              3,
			MaxConcurrentPublicationsPerDataset: 3,
			PerPublicationTimeoutS:               120,
			PerDatasetTimeoutS:                   600,
		},
		Cache: CacheConfig{
			MaxSize:    1000,
			TTLSeconds: 3600,
		},
		Features: FeatureFlags{EnableLastResortMirrors: false},
	}
}
