// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geosearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/internal/fetch"
)

const sampleESearch = `<?xml version="1.0"?>
<eSearchResult><IdList><Id>200012345</Id></IdList></eSearchResult>`

const sampleESummary = `<?xml version="1.0"?>
<eSummaryResult><DocSum>
<Id>200012345</Id>
<Item Name="Accession" Type="String">GSE12345</Item>
<Item Name="title" Type="String">Gene expression in liver</Item>
<Item Name="summary" Type="String">A study of liver gene expression.</Item>
<Item Name="taxon" Type="String">Homo sapiens</Item>
<Item Name="GPL" Type="String">GPL570</Item>
<Item Name="n_samples" Type="Integer">12</Item>
</DocSum></eSummaryResult>`

const sampleELink = `<?xml version="1.0"?>
<eLinkResult><LinkSet><LinkSetDb><DbTo>pubmed</DbTo>
<Link><Id>11111</Id></Link><Link><Id>22222</Id></Link>
</LinkSetDb></LinkSet></eLinkResult>`

func withStubEUtils(t *testing.T) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			_, _ = w.Write([]byte(sampleESearch))
		case strings.Contains(r.URL.Path, "esummary"):
			_, _ = w.Write([]byte(sampleESummary))
		case strings.Contains(r.URL.Path, "elink"):
			_, _ = w.Write([]byte(sampleELink))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	origSearch, origSummary, origLink := esearchBase, esummaryBase, elinkBase
	esearchBase = server.URL + "/esearch.fcgi"
	esummaryBase = server.URL + "/esummary.fcgi"
	elinkBase = server.URL + "/elink.fcgi"
	t.Cleanup(func() {
		esearchBase, esummaryBase, elinkBase = origSearch, origSummary, origLink
	})
}

func TestEUtilsSearch_Search_ReturnsDatasetWithOriginalPMIDs(t *testing.T) {
	withStubEUtils(t)

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	s := New(f, "", "")
	hits, err := s.Search(context.Background(), "liver gene expression", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "GSE12345", string(hit.Dataset.ID))
	assert.Equal(t, "Gene expression in liver", hit.Dataset.Title)
	assert.Equal(t, "Homo sapiens", hit.Dataset.Organism)
	assert.Equal(t, "GPL570", hit.Dataset.Platform)
	assert.Equal(t, 12, hit.Dataset.SampleCount)
	require.Len(t, hit.OriginalPMIDs, 2)
	assert.Equal(t, "11111", string(hit.OriginalPMIDs[0]))
}

func TestEUtilsSearch_Search_DefaultsMaxResults(t *testing.T) {
	withStubEUtils(t)

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	s := New(f, "", "")
	hits, err := s.Search(context.Background(), "liver", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestEUtilsSearch_Search_NoHitsReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><eSearchResult><IdList></IdList></eSearchResult>`))
	}))
	defer server.Close()
	orig := esearchBase
	esearchBase = server.URL
	defer func() { esearchBase = orig }()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	s := New(f, "", "")
	hits, err := s.Search(context.Background(), "nonexistent query", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
