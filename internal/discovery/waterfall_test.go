// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/internal/sources"
	"github.com/meshintel/geo-engine/pkg/types"
)

type delayedResolver struct {
	name  string
	tier  int
	delay time.Duration
	url   string
}

func (d delayedResolver) Name() string { return d.name }
func (d delayedResolver) Tier() int    { return d.tier }
func (d delayedResolver) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []types.URLCandidate{{
		PublicationID: pub.ID, SourceName: d.name, URL: d.url,
		Kind: types.KindPDF, Tier: d.tier, DiscoveredAt: time.Now(),
	}}, nil
}

type memSink struct {
	mu     sync.Mutex
	events []types.PipelineEvent
}

func (m *memSink) Append(ev types.PipelineEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func TestDiscover_TierOrderObeyedRegardlessOfResolutionSpeed(t *testing.T) {
	// Tier 2 resolves near-instantly; tier 1 is slower. The waterfall must
	// still place tier 1's candidate ahead of tier 2's in the output,
	// matching testable property #1.
	reg := sources.NewRegistry([]sources.Resolver{
		delayedResolver{name: "fast-tier2", tier: 2, delay: time.Millisecond, url: "https://example.org/tier2.pdf"},
		delayedResolver{name: "slow-tier1", tier: 1, delay: 30 * time.Millisecond, url: "https://example.org/tier1.pdf"},
	})

	sink := &memSink{}
	got := Discover(context.Background(), reg, types.Publication{ID: "1"}, sink)

	require.Len(t, got, 2)
	assert.Equal(t, "https://example.org/tier1.pdf", got[0].URL)
	assert.Equal(t, "https://example.org/tier2.pdf", got[1].URL)
}

func TestDiscover_DuplicateURLsSuppressed(t *testing.T) {
	reg := sources.NewRegistry([]sources.Resolver{
		delayedResolver{name: "a", tier: 1, url: "https://example.org/same.pdf"},
		delayedResolver{name: "b", tier: 2, url: "https://example.org/same.pdf"},
	})

	got := Discover(context.Background(), reg, types.Publication{ID: "1"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].SourceName)
}

func TestDiscover_SlowSourceSkippedAfterTimeout(t *testing.T) {
	orig := SourceTimeout
	SourceTimeout = 10 * time.Millisecond
	defer func() { SourceTimeout = orig }()

	reg := sources.NewRegistry([]sources.Resolver{
		delayedResolver{name: "timely", tier: 1, delay: time.Millisecond, url: "https://example.org/ok.pdf"},
		delayedResolver{name: "stuck", tier: 1, delay: time.Second, url: "https://example.org/late.pdf"},
	})

	sink := &memSink{}
	got := Discover(context.Background(), reg, types.Publication{ID: "1"}, sink)

	require.Len(t, got, 1)
	assert.Equal(t, "https://example.org/ok.pdf", got[0].URL)

	var sawSkip bool
	for _, ev := range sink.events {
		if ev.Outcome == types.OutcomeSkipped {
			sawSkip = true
		}
	}
	assert.True(t, sawSkip, "expected a skipped event for the stuck source")
}
