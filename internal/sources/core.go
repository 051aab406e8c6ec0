// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

var coreAPIBase = "https://api.core.ac.uk/v3/search/works/"

type coreSearchResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	DownloadURL string `json:"downloadUrl"`
}

// Core resolves PDF locations via the CORE aggregator API, keyed by DOI.
// Requires an API key; queries with none configured return empty rather
// than failing the publication.
type Core struct {
	fetcher *fetch.Fetcher
	tier    int
	apiKey  string
}

func NewCore(fetcher *fetch.Fetcher, tier int, apiKey string) *Core {
	return &Core{fetcher: fetcher, tier: tier, apiKey: apiKey}
}

func (c *Core) Name() string { return "core" }
func (c *Core) Tier() int    { return c.tier }

func (c *Core) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.CanonicalDOI == "" || c.apiKey == "" {
		return nil, nil
	}

	q := url.Values{"q": {fmt.Sprintf("doi:%q", pub.CanonicalDOI)}}
	reqURL := coreAPIBase + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "core.Resolve", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "core.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "core.Resolve", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out coreSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "core.Resolve", err)
	}

	var candidates []types.URLCandidate
	for _, w := range out.Results {
		if w.DownloadURL == "" {
			continue
		}
		candidates = append(candidates, types.URLCandidate{
			PublicationID: pub.ID,
			SourceName:    c.Name(),
			URL:           w.DownloadURL,
			Kind:          types.KindPDF,
			Tier:          c.tier,
			DiscoveredAt:  time.Now(),
		})
	}
	return candidates, nil
}
