// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// crossrefWorksBase matches the teacher's internal/acquire/acquire.go
// CrossRef metadata endpoint.
var crossrefWorksBase = "https://api.crossref.org/works/"

type crossrefWorkResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Link []crossrefLink `json:"link"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// Crossref resolves publisher-hosted full-text links for a DOI.
type Crossref struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewCrossref(fetcher *fetch.Fetcher, tier int) *Crossref {
	return &Crossref{fetcher: fetcher, tier: tier}
}

func (c *Crossref) Name() string { return "crossref" }
func (c *Crossref) Tier() int    { return c.tier }

func (c *Crossref) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.CanonicalDOI == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefWorksBase+pub.CanonicalDOI, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "crossref.Resolve", err)
	}

	resp, err := c.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "crossref.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "crossref.Resolve", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out crossrefWorkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "crossref.Resolve", err)
	}

	var candidates []types.URLCandidate
	for _, link := range out.Message.Link {
		if link.URL == "" {
			continue
		}
		kind := types.KindLandingHTML
		if link.ContentType == "application/pdf" {
			kind = types.KindPDF
		}
		candidates = append(candidates, types.URLCandidate{
			PublicationID: pub.ID, SourceName: c.Name(), URL: link.URL,
			Kind: kind, Tier: c.tier, DiscoveredAt: time.Now(),
		})
	}
	return candidates, nil
}
