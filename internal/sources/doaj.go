// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

var doajSearchBase = "https://doaj.org/api/search/articles/"

type doajSearchResponse struct {
	Results []doajArticle `json:"results"`
}

type doajArticle struct {
	Bibjson struct {
		Link []doajLink `json:"link"`
	} `json:"bibjson"`
}

type doajLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// DOAJ resolves full text for articles in open-access journals indexed by
// the Directory of Open Access Journals, keyed by DOI.
type DOAJ struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewDOAJ(fetcher *fetch.Fetcher, tier int) *DOAJ {
	return &DOAJ{fetcher: fetcher, tier: tier}
}

func (d *DOAJ) Name() string { return "doaj" }
func (d *DOAJ) Tier() int    { return d.tier }

func (d *DOAJ) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.CanonicalDOI == "" {
		return nil, nil
	}

	reqURL := doajSearchBase + url.PathEscape("doi:"+pub.CanonicalDOI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "doaj.Resolve", err)
	}

	resp, err := d.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "doaj.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "doaj.Resolve", nil)
	}

	var out doajSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "doaj.Resolve", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}

	var candidates []types.URLCandidate
	for _, link := range out.Results[0].Bibjson.Link {
		if link.URL == "" {
			continue
		}
		kind := types.KindLandingHTML
		if link.Type == "fulltext" {
			kind = types.KindPDF
		}
		candidates = append(candidates, types.URLCandidate{
			PublicationID: pub.ID, SourceName: d.Name(), URL: link.URL,
			Kind: kind, Tier: d.tier, DiscoveredAt: time.Now(),
		})
	}
	return candidates, nil
}
