// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

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

// esearchBase and efetchBase are NCBI's E-utilities endpoints, the same
// ESearch-then-EFetch two-step idiom the retrieved corpus's PubMed
// clients use.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

type pubmedESearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	IDList  struct {
		IDs []string `xml:"Id"`
	} `xml:"IdList"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Journal      struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year string `xml:"Year"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			Abstract struct {
				AbstractTexts []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			AuthorList struct {
				Authors []struct {
					LastName string `xml:"LastName"`
					ForeName string `xml:"ForeName"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

// PubMedMentions implements MentionSource (Strategy B): free-text search
// PubMed for a GEO accession string and fetch the matching records.
type PubMedMentions struct {
	fetcher  *fetch.Fetcher
	apiKey   string
	maxHits  int
}

func NewPubMedMentions(fetcher *fetch.Fetcher, apiKey string, maxHits int) *PubMedMentions {
	if maxHits <= 0 {
		maxHits = 50
	}
	return &PubMedMentions{fetcher: fetcher, apiKey: apiKey, maxHits: maxHits}
}

func (m *PubMedMentions) SearchMentions(ctx context.Context, accession types.DatasetID) ([]types.Publication, error) {
	pmids, err := m.esearch(ctx, string(accession))
	if err != nil || len(pmids) == 0 {
		return nil, err
	}
	return m.efetch(ctx, pmids)
}

func (m *PubMedMentions) esearch(ctx context.Context, term string) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {strconv.Itoa(m.maxHits)},
		"retmode": {"xml"},
	}
	if m.apiKey != "" {
		params.Set("api_key", m.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, esearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "pubmed.esearch", err)
	}
	resp, err := m.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "pubmed.esearch", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed pubmedESearchResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "pubmed.esearch", err)
	}
	return parsed.IDList.IDs, nil
}

func (m *PubMedMentions) efetch(ctx context.Context, pmids []string) ([]types.Publication, error) {
	params := url.Values{"db": {"pubmed"}, "retmode": {"xml"}}
	for _, id := range pmids {
		params.Add("id", id)
	}
	if m.apiKey != "" {
		params.Set("api_key", m.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, efetchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "pubmed.efetch", err)
	}
	resp, err := m.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.SourceUnavailable, "pubmed.efetch", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.E(errs.ParseFailure, "pubmed.efetch", err)
	}

	var out []types.Publication
	for _, a := range parsed.Articles {
		mc := a.MedlineCitation
		var authors []string
		for _, au := range mc.Article.AuthorList.Authors {
			name := au.ForeName
			if name != "" {
				name += " "
			}
			authors = append(authors, name+au.LastName)
		}
		var abstract string
		for _, t := range mc.Article.Abstract.AbstractTexts {
			abstract += t + " "
		}
		year, _ := strconv.Atoi(mc.Article.Journal.PubDate.Year)
		out = append(out, types.Publication{
			ID:       types.PublicationID(mc.PMID),
			Title:    mc.Article.ArticleTitle,
			Authors:  authors,
			Journal:  mc.Article.Journal.Title,
			Year:     year,
			Abstract: abstract,
		})
	}
	return out, nil
}
