// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/meshintel/geo-engine/internal/cache"
	"github.com/meshintel/geo-engine/internal/citation"
	"github.com/meshintel/geo-engine/internal/container"
	"github.com/meshintel/geo-engine/internal/download"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/internal/geosearch"
	"github.com/meshintel/geo-engine/internal/hotcache"
	"github.com/meshintel/geo-engine/internal/parse"
	"github.com/meshintel/geo-engine/internal/pipeline"
	"github.com/meshintel/geo-engine/internal/sources"
	"github.com/meshintel/geo-engine/internal/store"
	"github.com/meshintel/geo-engine/internal/summarize"
	"github.com/meshintel/geo-engine/pkg/types"
)

// loadEngineConfig merges the documented defaults with whatever Viper
// picked up from the config file and environment, then resolves any
// still-empty API keys from the loaded secrets directory.
func loadEngineConfig() types.EngineConfig {
	cfg := types.DefaultEngineConfig()
	_ = viper.Unmarshal(&cfg)

	if sc, ok := cfg.Sources["unpaywall"]; ok && sc.Email == "" {
		sc.Email = secretDefault("unpaywall-email", "")
		cfg.Sources["unpaywall"] = sc
	}
	if sc, ok := cfg.Sources["core"]; ok && sc.APIKey == "" {
		sc.APIKey = secretDefault("core-api-key", "")
		cfg.Sources["core"] = sc
	}
	if sc, ok := cfg.Sources["openalex"]; ok && sc.Email == "" {
		sc.Email = secretDefault("openalex-email", "")
		cfg.Sources["openalex"] = sc
	}
	return cfg
}

// wiredApp holds every long-lived collaborator the CLI subcommands need.
type wiredApp struct {
	coordinator *pipeline.Coordinator
	store       *store.Store
	hotCache    *hotcache.Cache
	search      geosearch.DatasetSearch
	summarizer  summarize.Summarizer
}

// dbPathFromDSN strips the "file:" scheme and query parameters from a
// SQLite DSN, since store.Open appends its own WAL/foreign-key params.
func dbPathFromDSN(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func buildApp(cfg types.EngineConfig) (*wiredApp, error) {
	fetcher, err := fetch.NewFromEngineConfig(cfg.Fetcher)
	if err != nil {
		return nil, err
	}

	registry := sources.BuildRegistry(cfg, fetcher)

	dl := download.New(fetcher, cfg.PDFRoot, cfg.Coordinator.MaxConcurrentDownloads, cfg.Fetcher.MinPDFBytes, cfg.Fetcher.MaxPDFBytes)

	var primary parse.Extractor
	if rt, err := container.DetectRuntime(); err == nil {
		if ce, err := parse.NewContainerExtractor(rt); err == nil {
			primary = ce
		}
	}
	parser := parse.New(primary, parse.FallbackExtractor{})

	contentCache, err := cache.New(cfg.Cache.MaxSize, cfg.ParsedCacheRoot)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dbPathFromDSN(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}

	hot, err := hotcache.New(cfg.Cache.MaxSize, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	s2ScholarKey := secretDefault("semantic-scholar-api-key", "")
	openAlexEmail := secretDefault("openalex-email", "")
	graphs := []citation.GraphSource{
		citation.NewOpenAlexGraph(fetcher, openAlexEmail),
		citation.NewSemanticScholarGraph(fetcher, s2ScholarKey),
	}
	mentions := citation.NewPubMedMentions(fetcher, "", 50)

	search := geosearch.New(fetcher, "", openAlexEmail)

	pipeline.MaxConcurrentPublicationsPerDataset = cfg.Coordinator.MaxConcurrentPublicationsPerDataset
	coord := pipeline.New(search, registry, graphs, mentions, dl, parser, contentCache, st, hot)

	var summarizer summarize.Summarizer
	if apiKey := secretDefault("anthropic-api-key", ""); apiKey != "" {
		summarizer = summarize.NewClaudeSummarizer(apiKey, "claude-3-5-sonnet-latest")
	}

	return &wiredApp{
		coordinator: coord,
		store:       st,
		hotCache:    hot,
		search:      search,
		summarizer:  summarizer,
	}, nil
}
