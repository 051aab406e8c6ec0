// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// openAlexWorksAPI is distinct from internal/sources's OpenAlex
// best-oa-location lookup: this one queries the citation graph
// (works citing a given work), not full-text availability.
var openAlexWorksAPI = "https://api.openalex.org/works"

type OpenAlexGraph struct {
	fetcher *fetch.Fetcher
	email   string
}

func NewOpenAlexGraph(fetcher *fetch.Fetcher, email string) *OpenAlexGraph {
	return &OpenAlexGraph{fetcher: fetcher, email: email}
}

func (g *OpenAlexGraph) Name() string { return "openalex-graph" }

type openAlexWorksResponse struct {
	Results []struct {
		ID           string   `json:"id"`
		DOI          string   `json:"doi"`
		Title        string   `json:"title"`
		PublicationYear int   `json:"publication_year"`
		Authorships  []struct {
			Author struct {
				DisplayName string `json:"display_name"`
			} `json:"author"`
		} `json:"authorships"`
		PrimaryLocation struct {
			Source struct {
				DisplayName string `json:"display_name"`
			} `json:"source"`
		} `json:"primary_location"`
		Ids struct {
			PMID string `json:"pmid"`
		} `json:"ids"`
	} `json:"results"`
}

// CitingPublications looks up the OpenAlex work ID for pmid, then finds
// works whose filter=cites:<id> matches it, per §4.10 Strategy A.
func (g *OpenAlexGraph) CitingPublications(ctx context.Context, pmid types.PublicationID, limit int) ([]types.Publication, error) {
	workID, err := g.resolveWorkID(ctx, pmid)
	if err != nil || workID == "" {
		return nil, err
	}

	params := url.Values{"filter": {"cites:" + workID}, "per_page": {fmt.Sprintf("%d", clamp(limit, 1, 200))}}
	if g.email != "" {
		params.Set("mailto", g.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexWorksAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "openalex-graph.CitingPublications", err)
	}
	resp, err := g.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "openalex-graph.CitingPublications", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed openAlexWorksResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "openalex-graph.CitingPublications", err)
	}

	var out []types.Publication
	for _, w := range parsed.Results {
		var authors []string
		for _, a := range w.Authorships {
			authors = append(authors, a.Author.DisplayName)
		}
		out = append(out, types.Publication{
			ID:           types.PublicationID(w.Ids.PMID),
			CanonicalDOI: w.DOI,
			Title:        w.Title,
			Authors:      authors,
			Journal:      w.PrimaryLocation.Source.DisplayName,
			Year:         w.PublicationYear,
		})
	}
	return out, nil
}

func (g *OpenAlexGraph) resolveWorkID(ctx context.Context, pmid types.PublicationID) (string, error) {
	reqURL := openAlexWorksAPI + "/pmid:" + string(pmid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", errs.E(errs.ConfigurationError, "openalex-graph.resolveWorkID", err)
	}
	resp, err := g.fetcher.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.E(errs.SourceUnavailable, "openalex-graph.resolveWorkID", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var work struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return "", errs.E(errs.ParseFailure, "openalex-graph.resolveWorkID", err)
	}
	return work.ID, nil
}

func clamp(v, min, max int) int {
	if v <= 0 {
		return min
	}
	if v > max {
		return max
	}
	return v
}
