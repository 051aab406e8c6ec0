// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"strings"
	"time"

	"github.com/meshintel/geo-engine/pkg/types"
)

// Institutional rewrites a DOI into a proxied URL using a configured
// template (e.g. "https://proxy.example.edu/login?url=https://doi.org/%s").
// Session cookies are supplied out-of-band by the shared *fetch.Fetcher's
// cookie jar, loaded at startup from an external file — this client never
// handles credentials directly, matching §4.1's "cookies provided by the
// fetcher's cookie jar" requirement.
type Institutional struct {
	tier     int
	template string
}

// NewInstitutional builds the tier-1 institutional proxy resolver.
// template must contain exactly one "%s" for the DOI.
func NewInstitutional(tier int, template string) *Institutional {
	return &Institutional{tier: tier, template: template}
}

func (i *Institutional) Name() string { return "institutional" }
func (i *Institutional) Tier() int    { return i.tier }

func (i *Institutional) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if i.template == "" || pub.CanonicalDOI == "" {
		return nil, nil
	}
	url := strings.Replace(i.template, "%s", pub.CanonicalDOI, 1)
	return []types.URLCandidate{{
		PublicationID: pub.ID,
		SourceName:    i.Name(),
		URL:           url,
		Kind:          types.KindLandingHTML,
		Tier:          i.tier,
		DiscoveredAt:  time.Now(),
	}}, nil
}
