// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/meshintel/geo-engine/pkg/types"
)

type stubResolver struct {
	name string
	tier int
}

func (s stubResolver) Name() string { return s.name }
func (s stubResolver) Tier() int    { return s.tier }
func (s stubResolver) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	return nil, nil
}

func TestRegistry_OrdersByTierThenName(t *testing.T) {
	r := NewRegistry([]Resolver{
		stubResolver{name: "zeta", tier: 2},
		stubResolver{name: "alpha", tier: 2},
		stubResolver{name: "institutional", tier: 1},
		stubResolver{name: "mirror-b", tier: 8},
	})

	got := r.All()
	assert.Equal(t, []string{"institutional", "alpha", "zeta", "mirror-b"}, []string{
		got[0].Name(), got[1].Name(), got[2].Name(), got[3].Name(),
	})
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Tier(), got[i].Tier())
	}
}
