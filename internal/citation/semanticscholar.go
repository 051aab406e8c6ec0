// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

var semanticScholarCitationsBase = "https://api.semanticscholar.org/graph/v1/paper/PMID:"

// SemanticScholarGraph queries the Semantic Scholar citation graph as a
// second Strategy A source, adapted from the teacher's internal/search
// backend shape but targeting the /citations endpoint instead of search.
type SemanticScholarGraph struct {
	fetcher *fetch.Fetcher
	apiKey  string
}

func NewSemanticScholarGraph(fetcher *fetch.Fetcher, apiKey string) *SemanticScholarGraph {
	return &SemanticScholarGraph{fetcher: fetcher, apiKey: apiKey}
}

func (g *SemanticScholarGraph) Name() string { return "semantic-scholar-graph" }

type semanticScholarCitationsResponse struct {
	Data []struct {
		CitingPaper struct {
			ExternalIds struct {
				PubMed string `json:"PubMed"`
				DOI    string `json:"DOI"`
			} `json:"externalIds"`
			Title   string   `json:"title"`
			Year    int      `json:"year"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
			Venue string `json:"venue"`
		} `json:"citingPaper"`
	} `json:"data"`
}

func (g *SemanticScholarGraph) CitingPublications(ctx context.Context, pmid types.PublicationID, limit int) ([]types.Publication, error) {
	reqURL := fmt.Sprintf("%s%s/citations?fields=title,year,authors,venue,externalIds&limit=%d",
		semanticScholarCitationsBase, pmid, clamp(limit, 1, 1000))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "semantic-scholar-graph.CitingPublications", err)
	}
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}

	resp, err := g.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "semantic-scholar-graph.CitingPublications", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed semanticScholarCitationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "semantic-scholar-graph.CitingPublications", err)
	}

	var out []types.Publication
	for _, d := range parsed.Data {
		var authors []string
		for _, a := range d.CitingPaper.Authors {
			authors = append(authors, a.Name)
		}
		out = append(out, types.Publication{
			ID:           types.PublicationID(d.CitingPaper.ExternalIds.PubMed),
			CanonicalDOI: d.CitingPaper.ExternalIds.DOI,
			Title:        d.CitingPaper.Title,
			Authors:      authors,
			Journal:      d.CitingPaper.Venue,
			Year:         d.CitingPaper.Year,
		})
	}
	return out, nil
}
