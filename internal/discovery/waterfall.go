// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery implements the URL Discovery Waterfall (C3 in
// SPEC_FULL.md §4.3): every enabled source is resolved concurrently, but
// results are consumed by the caller in strict tier order. The
// concurrent-fan-out-then-collect shape is adapted from the teacher's
// internal/search.Search function; the tier ordering is new, since the
// teacher's search has no tiering concept. Every enabled source is resolved
// for every publication, and the candidates are returned as one
// tier-ordered list once all sources have finished or timed out; there is
// no early-stop signal from the consumer (the download manager stops at its
// first successful candidate, but discovery has already run to completion).
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meshintel/geo-engine/internal/sources"
	"github.com/meshintel/geo-engine/pkg/types"
)

// SourceTimeout bounds how long a single source is waited on before it is
// skipped for one publication (§4.3 step 6). Tests override this to avoid
// real sleeps.
var SourceTimeout = 10 * time.Second

// EventSink receives one PipelineEvent per source per publication, with
// outcome ok, failed, or skipped (on timeout), covering §4.3 step 6's
// "an event is logged".
type EventSink interface {
	Append(ev types.PipelineEvent)
}

type perSourceResult struct {
	source types.PipelineEvent
	urls   []types.URLCandidate
	err    error
}

// Discover resolves pub against every resolver in reg concurrently and
// returns candidates grouped by tier, in ascending tier order; within a
// tier, candidates are ordered by the owning source's (tier, name) as
// already guaranteed by Registry.All, and duplicate URLs are suppressed
// globally across tiers (first occurrence wins, which is always the
// higher-priority tier because tiers are processed in order). Duplicates
// are detected by exact string match only; URLs are not normalized, so
// variants of one address (case, trailing slash, query order) are all kept.
func Discover(ctx context.Context, reg *sources.Registry, pub types.Publication, sink EventSink) []types.URLCandidate {
	resolvers := reg.All()
	results := make([]perSourceResult, len(resolvers))

	var wg sync.WaitGroup
	for i, r := range resolvers {
		wg.Add(1)
		go func(i int, r sources.Resolver) {
			defer wg.Done()
			results[i] = resolveWithTimeout(ctx, r, pub)
		}(i, r)
	}
	wg.Wait()

	// Group by tier in the order the registry already sorted resolvers,
	// so within-tier ordering by (tier, name) falls out for free.
	byTier := make(map[int][]perSourceResult)
	var tiers []int
	for i, r := range resolvers {
		t := r.Tier()
		if _, ok := byTier[t]; !ok {
			tiers = append(tiers, t)
		}
		byTier[t] = append(byTier[t], results[i])
	}
	sort.Ints(tiers)

	seen := make(map[string]struct{})
	var ordered []types.URLCandidate
	for _, tier := range tiers {
		for _, res := range byTier[tier] {
			if sink != nil {
				sink.Append(res.source)
			}
			for _, c := range res.urls {
				if _, dup := seen[c.URL]; dup {
					continue
				}
				seen[c.URL] = struct{}{}
				ordered = append(ordered, c)
			}
		}
	}
	return ordered
}

func resolveWithTimeout(ctx context.Context, r sources.Resolver, pub types.Publication) perSourceResult {
	ctx, cancel := context.WithTimeout(ctx, SourceTimeout)
	defer cancel()

	done := make(chan struct {
		urls []types.URLCandidate
		err  error
	}, 1)

	go func() {
		urls, err := r.Resolve(ctx, pub)
		done <- struct {
			urls []types.URLCandidate
			err  error
		}{urls, err}
	}()

	select {
	case out := <-done:
		outcome := types.OutcomeOK
		detail := ""
		if out.err != nil {
			outcome = types.OutcomeFailed
			detail = out.err.Error()
		}
		return perSourceResult{
			source: types.PipelineEvent{
				PublicationID: pub.ID,
				Stage:         types.StageURLDiscovery,
				Outcome:       outcome,
				Detail:        fmt.Sprintf("%s: %s", r.Name(), detail),
				Timestamp:     time.Now(),
			},
			urls: out.urls,
			err:  out.err,
		}
	case <-ctx.Done():
		return perSourceResult{
			source: types.PipelineEvent{
				PublicationID: pub.ID,
				Stage:         types.StageURLDiscovery,
				Outcome:       types.OutcomeSkipped,
				Detail:        r.Name() + ": timed out",
				Timestamp:     time.Now(),
			},
		}
	}
}
