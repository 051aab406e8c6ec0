// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// arxivAPIBase and arxivPDFBase mirror the teacher's
// internal/acquire/resolve.go and internal/search/arxiv.go base URLs.
var (
	arxivAPIBase = "https://export.arxiv.org/api/query"
	arxivPDFBase = "https://arxiv.org/pdf/"
)

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
}

var arxivIDPattern = regexp.MustCompile(`/abs/([^v]+)`)

// Arxiv finds a matching arXiv preprint by title search (a publication
// resolved from PubMed/GEO has no arXiv ID to begin with, unlike the
// teacher's identifier-classification flow in internal/acquire/resolve.go
// which starts from a known arXiv ID).
type Arxiv struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewArxiv(fetcher *fetch.Fetcher, tier int) *Arxiv {
	return &Arxiv{fetcher: fetcher, tier: tier}
}

func (a *Arxiv) Name() string { return "arxiv" }
func (a *Arxiv) Tier() int    { return a.tier }

func (a *Arxiv) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if pub.Title == "" {
		return nil, nil
	}

	q := url.Values{
		"search_query": {"ti:\"" + pub.Title + "\""},
		"max_results":  {"1"},
	}
	reqURL := arxivAPIBase + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "arxiv.Resolve", err)
	}

	resp, err := a.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "arxiv.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "arxiv.Resolve", nil)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, errs.E(errs.SourceUnavailable, "arxiv.Resolve", err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}

	entry := feed.Entries[0]
	if !strings.EqualFold(strings.TrimSpace(entry.Title), strings.TrimSpace(pub.Title)) {
		return nil, nil // title search is fuzzy server-side; require an exact match client-side
	}

	m := arxivIDPattern.FindStringSubmatch(entry.ID)
	if m == nil {
		return nil, nil
	}

	return []types.URLCandidate{{
		PublicationID: pub.ID, SourceName: a.Name(), URL: arxivPDFBase + m[1],
		Kind: types.KindPDF, Tier: a.tier, DiscoveredAt: time.Now(),
	}}, nil
}
