// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// mirrorPatterns holds only the two HTML patterns measured to succeed in
// the source system's offline evaluation (§4.1, §9): an <embed src=...>
// tag and an <iframe src=...> tag pointing at a PDF. Every other pattern
// that was tried is intentionally absent.
var mirrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<embed[^>]+src=["']([^"']+\.pdf[^"']*)["']`),
	regexp.MustCompile(`<iframe[^>]+src=["']([^"']+\.pdf[^"']*)["']`),
}

// Mirror is a best-effort, disabled-by-default last-resort resolver that
// rewrites a DOI into a fixed mirror hostname's landing page and scrapes
// it for a PDF link. Two instances are registered (mirror-a, mirror-b) at
// tiers 7 and 8, each with a distinct allow-listed hostname template.
type Mirror struct {
	fetcher  *fetch.Fetcher
	name     string
	tier     int
	template string // e.g. "https://mirror-a.example.org/doi/%s"
}

func NewMirror(fetcher *fetch.Fetcher, name string, tier int, template string) *Mirror {
	return &Mirror{fetcher: fetcher, name: name, tier: tier, template: template}
}

func (m *Mirror) Name() string { return m.name }
func (m *Mirror) Tier() int    { return m.tier }

func (m *Mirror) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if m.template == "" || pub.CanonicalDOI == "" {
		return nil, nil
	}

	landing := fmt.Sprintf(m.template, pub.CanonicalDOI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landing, nil)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, m.name+".Resolve", err)
	}

	resp, err := m.fetcher.Do(ctx, req)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, m.name+".Resolve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, m.name+".Resolve", err)
	}
	html := string(body)

	for _, pattern := range mirrorPatterns {
		if match := pattern.FindStringSubmatch(html); match != nil {
			pdfURL := match[1]
			if !strings.HasPrefix(pdfURL, "http") {
				continue // relative URLs are not resolved; measured success was on absolute src values only
			}
			return []types.URLCandidate{{
				PublicationID: pub.ID, SourceName: m.name, URL: pdfURL,
				Kind: types.KindPDF, Tier: m.tier, DiscoveredAt: time.Now(),
			}}, nil
		}
	}
	return nil, nil
}
