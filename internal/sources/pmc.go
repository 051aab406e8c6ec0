// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// pmcIDConvBase is the NCBI PMC ID Converter API, grounded on the
// ESearch/ESummary two-step idiom used by the repository's GEO metadata
// examples (other_examples' NCBI E-utilities clients).
var pmcIDConvBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

type idConvResponse struct {
	Records []idConvRecord `json:"records"`
}

type idConvRecord struct {
	PMID  string `json:"pmid"`
	PMCID string `json:"pmcid"`
}

// PMC resolves full text hosted on PubMed Central for a given PMID via
// the ID Converter API.
type PMC struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewPMC(fetcher *fetch.Fetcher, tier int) *PMC {
	return &PMC{fetcher: fetcher, tier: tier}
}

func (p *PMC) Name() string { return "pmc" }
func (p *PMC) Tier() int    { return p.tier }

func (p *PMC) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	pmid := string(pub.ID)
	if pmid == "" {
		return nil, nil
	}

	reqURL := pmcIDConvBase + "?ids=" + pmid + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "pmc.Resolve", err)
	}

	resp, err := p.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "pmc.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "pmc.Resolve", nil)
	}

	var out idConvResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "pmc.Resolve", err)
	}
	if len(out.Records) == 0 || out.Records[0].PMCID == "" {
		return nil, nil
	}

	landing := "https://www.ncbi.nlm.nih.gov/pmc/articles/" + out.Records[0].PMCID + "/"
	pdf := landing + "pdf/"

	return []types.URLCandidate{{
		PublicationID: pub.ID, SourceName: p.Name(), URL: pdf,
		Kind: types.KindPDF, Tier: p.tier, DiscoveredAt: time.Now(),
	}}, nil
}
