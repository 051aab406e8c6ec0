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

// unpaywallAPIBase is a var so tests can substitute an httptest server,
// matching the teacher's internal/acquire/resolve.go base-URL idiom.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// Unpaywall resolves open-access PDF locations by DOI via the Unpaywall
// REST API. Grounded on the teacher's internal/acquire/openalex.go
// single-DOI-lookup shape.
type Unpaywall struct {
	fetcher *fetch.Fetcher
	tier    int
	email   string
}

func NewUnpaywall(fetcher *fetch.Fetcher, tier int, email string) *Unpaywall {
	return &Unpaywall{fetcher: fetcher, tier: tier, email: email}
}

func (u *Unpaywall) Name() string { return "unpaywall" }
func (u *Unpaywall) Tier() int    { return u.tier }

func (u *Unpaywall) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.CanonicalDOI == "" {
		return nil, nil
	}

	email := u.email
	if email == "" {
		email = "research@example.org"
	}
	reqURL := fmt.Sprintf("%s%s?email=%s", unpaywallAPIBase, pub.CanonicalDOI, email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "unpaywall.Resolve", err)
	}

	resp, err := u.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "unpaywall.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "unpaywall.Resolve", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "unpaywall.Resolve", err)
	}
	if out.BestOALocation == nil {
		return nil, nil
	}

	url := out.BestOALocation.URLForPDF
	kind := types.KindPDF
	if url == "" {
		url = out.BestOALocation.URL
		kind = types.KindLandingHTML
	}
	if url == "" {
		return nil, nil
	}

	return []types.URLCandidate{{
		PublicationID: pub.ID,
		SourceName:    u.Name(),
		URL:           url,
		Kind:          kind,
		Tier:          u.tier,
		DiscoveredAt:  time.Now(),
	}}, nil
}
