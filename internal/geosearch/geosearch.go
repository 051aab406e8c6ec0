// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geosearch is the reference, default implementation of the
// out-of-scope DatasetSearch collaborator: it resolves a free-text query
// to a ranked list of GEO dataset IDs with lightweight metadata and the
// PMIDs of their originating publications, using NCBI's E-utilities
// (ESearch against the gds database, then ESummary per UID, then ELink
// to pull linked PubMed IDs). This mirrors the ESearch/ESummary/ELink
// three-call shape used elsewhere in the retrieved corpus's GEO metadata
// downloaders, adapted to return this module's own types instead of a
// generic downloader Metadata struct.
package geosearch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

var (
	esearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	esummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
	elinkBase    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/elink.fcgi"
)

// Hit is one ranked search result: a dataset candidate plus the PMIDs of
// its originating publications, discovered via the gds<->pubmed ELink.
type Hit struct {
	Dataset       types.Dataset
	OriginalPMIDs []types.PublicationID
}

// DatasetSearch is the collaborator contract named in SPEC_FULL.md §6:
// a free-text query resolves to a ranked list of dataset candidates.
type DatasetSearch interface {
	Search(ctx context.Context, query string, maxResults int) ([]Hit, error)
}

// EUtilsSearch implements DatasetSearch against NCBI E-utilities.
type EUtilsSearch struct {
	fetcher *fetch.Fetcher
	apiKey  string
	email   string
}

func New(fetcher *fetch.Fetcher, apiKey, email string) *EUtilsSearch {
	return &EUtilsSearch{fetcher: fetcher, apiKey: apiKey, email: email}
}

type esearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	IDList  struct {
		IDs []string `xml:"Id"`
	} `xml:"IdList"`
}

type esummaryResult struct {
	XMLName xml.Name `xml:"eSummaryResult"`
	DocSums []docSum `xml:"DocSum"`
}

type docSum struct {
	ID    string `xml:"Id"`
	Items []item `xml:"Item"`
}

type item struct {
	Name    string `xml:"Name,attr"`
	Content string `xml:",chardata"`
	Items   []item `xml:"Item"`
}

type elinkResult struct {
	XMLName  xml.Name `xml:"eLinkResult"`
	LinkSets []struct {
		LinkSetDbs []struct {
			DbTo  string `xml:"DbTo"`
			Links []struct {
				ID string `xml:"Id"`
			} `xml:"Link"`
		} `xml:"LinkSetDb"`
	} `xml:"LinkSet"`
}

// Search resolves query to at most maxResults ranked dataset candidates
// in the order NCBI returns them (ESearch's relevance ranking is assumed;
// this adapter does not re-rank).
func (s *EUtilsSearch) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	if maxResults <= 0 {
		maxResults = 20
	}

	uids, err := s.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, uid := range uids {
		ds, err := s.esummary(ctx, uid)
		if err != nil {
			continue
		}
		pmids, err := s.elinkToPubmed(ctx, uid)
		if err != nil {
			pmids = nil
		}
		hits = append(hits, Hit{Dataset: ds, OriginalPMIDs: pmids})
	}
	return hits, nil
}

func (s *EUtilsSearch) esearch(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"gds"},
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"xml"},
	}
	s.addCredentials(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, esearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "geosearch.esearch", err)
	}
	resp, err := s.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "geosearch.esearch", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed esearchResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "geosearch.esearch", err)
	}
	return parsed.IDList.IDs, nil
}

func (s *EUtilsSearch) esummary(ctx context.Context, uid string) (types.Dataset, error) {
	params := url.Values{"db": {"gds"}, "id": {uid}, "retmode": {"xml"}}
	s.addCredentials(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, esummaryBase+"?"+params.Encode(), nil)
	if err != nil {
		return types.Dataset{}, errs.E(errs.ConfigurationError, "geosearch.esummary", err)
	}
	resp, err := s.fetcher.Do(ctx, req)
	if err != nil {
		return types.Dataset{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.Dataset{}, errs.E(errs.SourceUnavailable, "geosearch.esummary", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed esummaryResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return types.Dataset{}, errs.E(errs.ParseFailure, "geosearch.esummary", err)
	}
	if len(parsed.DocSums) == 0 {
		return types.Dataset{}, errs.E(errs.NotFound, "geosearch.esummary", fmt.Errorf("no summary for uid %s", uid))
	}

	var ds types.Dataset
	for _, it := range parsed.DocSums[0].Items {
		switch it.Name {
		case "Accession":
			ds = *types.NewDataset(types.DatasetID(it.Content))
		case "title":
			ds.Title = it.Content
		case "summary":
			ds.Summary = it.Content
		case "taxon":
			ds.Organism = it.Content
		case "GPL":
			ds.Platform = it.Content
		case "n_samples":
			if n, err := strconv.Atoi(it.Content); err == nil {
				ds.SampleCount = n
			}
		}
	}
	if ds.ID == "" {
		return types.Dataset{}, errs.E(errs.ParseFailure, "geosearch.esummary", fmt.Errorf("no accession in summary for uid %s", uid))
	}
	return ds, nil
}

func (s *EUtilsSearch) elinkToPubmed(ctx context.Context, uid string) ([]types.PublicationID, error) {
	params := url.Values{"dbfrom": {"gds"}, "db": {"pubmed"}, "id": {uid}, "retmode": {"xml"}}
	s.addCredentials(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, elinkBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "geosearch.elink", err)
	}
	resp, err := s.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "geosearch.elink", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed elinkResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "geosearch.elink", err)
	}

	var pmids []types.PublicationID
	for _, ls := range parsed.LinkSets {
		for _, db := range ls.LinkSetDbs {
			if db.DbTo != "pubmed" {
				continue
			}
			for _, l := range db.Links {
				pmids = append(pmids, types.PublicationID(l.ID))
			}
		}
	}
	return pmids, nil
}

func (s *EUtilsSearch) addCredentials(params url.Values) {
	if s.apiKey != "" {
		params.Set("api_key", s.apiKey)
	}
	if s.email != "" {
		params.Set("email", s.email)
	}
	params.Set("tool", "geo-engine")
}
