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

var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

type europePMCSearchResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	PMCID        string `json:"pmcid"`
	IsOpenAccess string `json:"isOpenAccess"`
}

// EuropePMC resolves full text hosted on Europe PMC for a given PMID.
type EuropePMC struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewEuropePMC(fetcher *fetch.Fetcher, tier int) *EuropePMC {
	return &EuropePMC{fetcher: fetcher, tier: tier}
}

func (e *EuropePMC) Name() string { return "europepmc" }
func (e *EuropePMC) Tier() int    { return e.tier }

func (e *EuropePMC) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	pmid := string(pub.ID)
	if pmid == "" {
		return nil, nil
	}

	q := url.Values{
		"query":  {"EXT_ID:" + pmid + " AND SRC:MED"},
		"format": {"json"},
	}
	reqURL := europePMCSearchBase + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "europepmc.Resolve", err)
	}

	resp, err := e.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "europepmc.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "europepmc.Resolve", nil)
	}

	var out europePMCSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "europepmc.Resolve", err)
	}
	if len(out.ResultList.Result) == 0 {
		return nil, nil
	}

	r := out.ResultList.Result[0]
	if r.PMCID == "" || r.IsOpenAccess != "Y" {
		return nil, nil
	}

	pdf := "https://europepmc.org/articles/" + r.PMCID + "?pdf=render"
	return []types.URLCandidate{{
		PublicationID: pub.ID, SourceName: e.Name(), URL: pdf,
		Kind: types.KindPDF, Tier: e.tier, DiscoveredAt: time.Now(),
	}}, nil
}
