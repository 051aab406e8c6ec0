// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements one adapter per external full-text service
// (C1 in SPEC_FULL.md §4.1). Each adapter is a stateless Resolver aside
// from an injected *fetch.Fetcher and an optional API key, mirroring the
// teacher's internal/search.Backend / internal/acquire identifier-resolver
// split collapsed into a single capability.
package sources

import (
	"context"
	"sort"

	"github.com/meshintel/geo-engine/pkg/types"
)

// Resolver is the capability every source client implements. Resolve may
// suspend on network I/O; it never returns an error for "no result" (an
// empty slice is the normal empty case) and returns a
// *errs.Error{Kind: errs.SourceUnavailable} on transport failure.
type Resolver interface {
	// Name is the static source name used for tiering, tie-breaking and
	// event logging (e.g. "unpaywall", "arxiv").
	Name() string

	// Tier is the static priority band (1 is highest) this source was
	// configured at when registered; see SPEC_FULL.md §4.1/§6.
	Tier() int

	// Resolve returns candidate full-text locations for pub.
	Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error)
}

// Registry holds the configured, enabled Resolvers in tier order.
type Registry struct {
	resolvers []Resolver
}

// NewRegistry sorts resolvers by (Tier, Name) ascending, matching the
// waterfall's required tie-break rule (§4.3 step 3).
func NewRegistry(resolvers []Resolver) *Registry {
	sorted := make([]Resolver, len(resolvers))
	copy(sorted, resolvers)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Tier() != sorted[j].Tier() {
			return sorted[i].Tier() < sorted[j].Tier()
		}
		return sorted[i].Name() < sorted[j].Name()
	})
	return &Registry{resolvers: sorted}
}

// All returns the resolvers in tier order.
func (r *Registry) All() []Resolver { return r.resolvers }
