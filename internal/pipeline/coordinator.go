// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline implements the Pipeline Coordinator (C9 in
// SPEC_FULL.md §4.9): one Run call fans out a search into independent
// per-dataset goroutines, each of which runs citation discovery followed
// by a bounded-concurrency discover->acquire->parse->persist flow per
// publication. The goroutine-fan-out/WaitGroup shape is the same one
// internal/discovery.Discover uses for per-source resolution, applied one
// layer up, with a semaphore added to bound the per-publication workers.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meshintel/geo-engine/internal/cache"
	"github.com/meshintel/geo-engine/internal/citation"
	"github.com/meshintel/geo-engine/internal/discovery"
	"github.com/meshintel/geo-engine/internal/download"
	"github.com/meshintel/geo-engine/internal/geosearch"
	"github.com/meshintel/geo-engine/internal/hotcache"
	"github.com/meshintel/geo-engine/internal/parse"
	"github.com/meshintel/geo-engine/internal/sources"
	"github.com/meshintel/geo-engine/internal/store"
	"github.com/meshintel/geo-engine/pkg/types"
)

// MaxConcurrentPublicationsPerDataset bounds how many publications within
// one dataset task are discovered/downloaded/parsed concurrently.
var MaxConcurrentPublicationsPerDataset = 3

// Coordinator wires together every collaborator a Run needs: search,
// citation discovery, per-source URL discovery, PDF download, PDF
// parsing, and persistence (store + both caches).
type Coordinator struct {
	search      geosearch.DatasetSearch
	registry    *sources.Registry
	graphs      []citation.GraphSource
	mentions    citation.MentionSource
	downloader  *download.Manager
	parser      *parse.Parser
	contentCache *cache.Cache
	store       *store.Store
	hot         *hotcache.Cache
}

func New(
	search geosearch.DatasetSearch,
	registry *sources.Registry,
	graphs []citation.GraphSource,
	mentions citation.MentionSource,
	downloader *download.Manager,
	parser *parse.Parser,
	contentCache *cache.Cache,
	st *store.Store,
	hot *hotcache.Cache,
) *Coordinator {
	return &Coordinator{
		search:       search,
		registry:     registry,
		graphs:       graphs,
		mentions:     mentions,
		downloader:   downloader,
		parser:       parser,
		contentCache: contentCache,
		store:        st,
		hot:          hot,
	}
}

// Run executes one search-and-enrich request. It never returns an error
// for partial dataset failures — those are recorded per-dataset in the
// returned RunResult; it only errors if the search stage itself fails.
func (c *Coordinator) Run(ctx context.Context, query string, maxDatasets int, opts types.RunOptions) (types.RunResult, error) {
	hits, err := c.search.Search(ctx, query, maxDatasets)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("search stage: %w", err)
	}

	result := types.RunResult{Query: query}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, hit := range hits {
		hit := hit
		wg.Add(1)
		go func() {
			defer wg.Done()
			dsResult := c.runDataset(ctx, hit, opts)
			mu.Lock()
			result.Datasets = append(result.Datasets, dsResult)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return result, nil
}

func (c *Coordinator) runDataset(ctx context.Context, hit geosearch.Hit, opts types.RunOptions) types.DatasetRunResult {
	if opts.PerDatasetTimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.PerDatasetTimeoutS*float64(time.Second)))
		defer cancel()
	}

	dataset := hit.Dataset
	if err := c.store.UpsertDataset(ctx, &dataset); err != nil {
		return types.DatasetRunResult{DatasetID: dataset.ID, Status: types.DatasetFailed, Error: err.Error()}
	}
	c.hot.Invalidate(dataset.ID)

	var originals []types.Publication
	for _, pmid := range hit.OriginalPMIDs {
		pub := types.Publication{ID: pmid, RoleForDataset: types.RoleOrigin}
		originals = append(originals, pub)
		if err := c.store.LinkPublication(ctx, dataset.ID, pub, types.RoleOrigin); err != nil {
			continue
		}
	}
	c.hot.Invalidate(dataset.ID)

	related := citation.FindRelated(ctx, dataset.ID, originals, c.graphs, c.mentions, opts.MaxCitingPerDataset)
	c.appendEvent(ctx, dataset.ID, "", types.StageCitation, types.OutcomeOK, fmt.Sprintf("%d citing found", len(related.Citing)))

	allPubs := append(append([]types.Publication{}, related.Original...), related.Citing...)
	if len(allPubs) == 0 {
		allPubs = originals
	}

	for _, pub := range related.Citing {
		if err := c.store.LinkPublication(ctx, dataset.ID, pub, types.RoleCiting); err != nil {
			continue
		}
	}
	c.hot.Invalidate(dataset.ID)

	outcomes := c.enrichPublications(ctx, dataset.ID, allPubs, opts)

	c.hot.Invalidate(dataset.ID)

	// A dataset with no publications at all (no original PMIDs, no
	// citing/mentioning publications found) completes cleanly — there is
	// nothing left to enrich. Partial is reserved for datasets where at
	// least one publication failed to reach the parsed substatus.
	status := types.DatasetComplete
	for _, o := range outcomes {
		if o.Substatus != types.SubstatusParsed {
			status = types.DatasetPartial
			break
		}
	}

	return types.DatasetRunResult{DatasetID: dataset.ID, Status: status, Publications: outcomes}
}

// enrichPublications runs discover->acquire->parse->persist for each
// publication, bounded by MaxConcurrentPublicationsPerDataset in-flight
// at once, matching the semaphore-channel idiom used by the download
// manager's global download concurrency cap.
func (c *Coordinator) enrichPublications(ctx context.Context, datasetID types.DatasetID, pubs []types.Publication, opts types.RunOptions) []types.PublicationOutcome {
	if !opts.EnableEnrichment {
		out := make([]types.PublicationOutcome, 0, len(pubs))
		for _, p := range pubs {
			out = append(out, types.PublicationOutcome{PublicationID: p.ID, Role: p.RoleForDataset, Substatus: types.SubstatusMetadataOnly})
		}
		return out
	}

	sem := make(chan struct{}, MaxConcurrentPublicationsPerDataset)
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := make([]types.PublicationOutcome, 0, len(pubs))

	for _, pub := range pubs {
		pub := pub
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			pubCtx := ctx
			if opts.PerPublicationTimeoutS > 0 {
				var cancel context.CancelFunc
				pubCtx, cancel = context.WithTimeout(ctx, time.Duration(opts.PerPublicationTimeoutS*float64(time.Second)))
				defer cancel()
			}

			outcome := c.enrichOnePublication(pubCtx, datasetID, pub, opts)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return outcomes
}

func (c *Coordinator) enrichOnePublication(ctx context.Context, datasetID types.DatasetID, pub types.Publication, opts types.RunOptions) types.PublicationOutcome {
	role := pub.RoleForDataset
	if role == "" {
		role = types.RoleCiting
	}

	candidates := discovery.Discover(ctx, c.registry, pub, &storeSink{store: c.store, datasetID: datasetID})
	for _, cand := range candidates {
		_ = c.store.RecordURLCandidate(ctx, cand)
	}

	// Idempotence (§4.9): a publication already acquired successfully in
	// a prior run is not re-downloaded; its stored acquisition is reused.
	acquisition, reused, err := c.store.GetSuccessfulAcquisition(ctx, pub.ID)
	if err != nil {
		c.appendEvent(ctx, datasetID, pub.ID, types.StageDownload, types.OutcomeFailed, err.Error())
	}

	if !reused {
		if len(candidates) == 0 {
			c.appendEvent(ctx, datasetID, pub.ID, types.StageURLDiscovery, types.OutcomeFailed, "no candidates discovered")
			return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusMetadataOnly, Error: "no candidates discovered"}
		}

		acquisition = c.downloader.Acquire(ctx, datasetID, role, pub, candidates)
		if err := c.store.RecordPDFAcquisition(ctx, acquisition); err != nil {
			return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusMetadataOnly, Error: err.Error()}
		}
		if acquisition.Status != types.StatusSuccess {
			c.appendEvent(ctx, datasetID, pub.ID, types.StageDownload, types.OutcomeFailed, string(acquisition.Status))
			return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusMetadataOnly, Error: string(acquisition.Status)}
		}
		c.appendEvent(ctx, datasetID, pub.ID, types.StageDownload, types.OutcomeOK, "")
	} else {
		c.appendEvent(ctx, datasetID, pub.ID, types.StageDownload, types.OutcomeOK, "reused prior successful acquisition")
	}

	if cached, ok := c.contentCache.Get(pub.ID, acquisition.SHA256); ok {
		if err := c.store.UpsertExtractedContent(ctx, cached); err == nil {
			return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusParsed}
		}
	}

	content := c.parser.Parse(ctx, pub.ID, acquisition.SHA256, acquisition.LocalPath)
	if err := c.contentCache.Put(content); err != nil {
		c.appendEvent(ctx, datasetID, pub.ID, types.StageParse, types.OutcomeFailed, err.Error())
	}
	if err := c.store.UpsertExtractedContent(ctx, content); err != nil {
		c.appendEvent(ctx, datasetID, pub.ID, types.StageParse, types.OutcomeFailed, err.Error())
		return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusPDFDownloaded, Error: err.Error()}
	}
	c.appendEvent(ctx, datasetID, pub.ID, types.StageParse, types.OutcomeOK, "")

	return types.PublicationOutcome{PublicationID: pub.ID, Role: role, Substatus: types.SubstatusParsed}
}

func (c *Coordinator) appendEvent(ctx context.Context, datasetID types.DatasetID, pubID types.PublicationID, stage types.Stage, outcome types.Outcome, detail string) {
	_ = c.store.AppendEvent(ctx, types.PipelineEvent{
		DatasetID:     datasetID,
		PublicationID: pubID,
		Stage:         stage,
		Outcome:       outcome,
		Detail:        detail,
		Timestamp:     time.Now(),
	})
}

// storeSink adapts the store's AppendEvent to discovery.EventSink.
type storeSink struct {
	store     *store.Store
	datasetID types.DatasetID
}

func (s *storeSink) Append(ev types.PipelineEvent) {
	ev.DatasetID = s.datasetID
	_ = s.store.AppendEvent(context.Background(), ev)
}
