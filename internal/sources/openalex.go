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

// openAlexWorksBase is grounded on the teacher's
// internal/acquire/openalex.go single-work-lookup endpoint.
var openAlexWorksBase = "https://api.openalex.org/works/doi:"

type openAlexWorkResponse struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

type openAlexLocation struct {
	PDFURL  string `json:"pdf_url"`
	LandingPageURL string `json:"landing_page_url"`
}

// OpenAlex resolves the OA PDF location for a DOI (tier 4: "OpenAlex OA
// links"), distinct from internal/citation's use of OpenAlex for the
// citation graph.
type OpenAlex struct {
	fetcher *fetch.Fetcher
	tier    int
	email   string
}

func NewOpenAlex(fetcher *fetch.Fetcher, tier int, email string) *OpenAlex {
	return &OpenAlex{fetcher: fetcher, tier: tier, email: email}
}

func (o *OpenAlex) Name() string { return "openalex" }
func (o *OpenAlex) Tier() int    { return o.tier }

func (o *OpenAlex) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.CanonicalDOI == "" {
		return nil, nil
	}

	reqURL := openAlexWorksBase + pub.CanonicalDOI
	if o.email != "" {
		reqURL += "?mailto=" + o.email
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "openalex.Resolve", err)
	}

	resp, err := o.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "openalex.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "openalex.Resolve", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out openAlexWorkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "openalex.Resolve", err)
	}
	if out.BestOALocation == nil {
		return nil, nil
	}

	if out.BestOALocation.PDFURL != "" {
		return []types.URLCandidate{{
			PublicationID: pub.ID, SourceName: o.Name(), URL: out.BestOALocation.PDFURL,
			Kind: types.KindPDF, Tier: o.tier, DiscoveredAt: time.Now(),
		}}, nil
	}
	if out.BestOALocation.LandingPageURL != "" {
		return []types.URLCandidate{{
			PublicationID: pub.ID, SourceName: o.Name(), URL: out.BestOALocation.LandingPageURL,
			Kind: types.KindLandingHTML, Tier: o.tier, DiscoveredAt: time.Now(),
		}}, nil
	}
	return nil, nil
}
