// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// bioRxivDOIPrefix marks the preprint DOIs this resolver deals in; DOIs
// registered with bioRxiv (prefix "10.1101/") have a predictable full-text
// PDF URL, so no search round-trip is needed — only a HEAD check that the
// guessed URL exists.
const bioRxivDOIPrefix = "10.1101/"

var bioRxivPDFBase = "https://www.biorxiv.org/content/"

// BioRxiv resolves the predictable PDF URL for a bioRxiv preprint DOI.
type BioRxiv struct {
	fetcher *fetch.Fetcher
	tier    int
}

func NewBioRxiv(fetcher *fetch.Fetcher, tier int) *BioRxiv {
	return &BioRxiv{fetcher: fetcher, tier: tier}
}

func (b *BioRxiv) Name() string { return "biorxiv" }
func (b *BioRxiv) Tier() int    { return b.tier }

func (b *BioRxiv) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if !strings.HasPrefix(pub.CanonicalDOI, bioRxivDOIPrefix) {
		return nil, nil
	}

	url := bioRxivPDFBase + pub.CanonicalDOI + "v1.full.pdf"

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "biorxiv.Resolve", err)
	}
	resp, err := b.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "biorxiv.Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	return []types.URLCandidate{{
		PublicationID: pub.ID, SourceName: b.Name(), URL: url,
		Kind: types.KindPDF, Tier: b.tier, DiscoveredAt: time.Now(),
	}}, nil
}
