// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/internal/cache"
	"github.com/meshintel/geo-engine/internal/download"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/internal/geosearch"
	"github.com/meshintel/geo-engine/internal/hotcache"
	"github.com/meshintel/geo-engine/internal/parse"
	"github.com/meshintel/geo-engine/internal/sources"
	"github.com/meshintel/geo-engine/internal/store"
	"github.com/meshintel/geo-engine/pkg/types"
)

type stubSearch struct {
	hits []geosearch.Hit
}

func (s stubSearch) Search(ctx context.Context, query string, maxResults int) ([]geosearch.Hit, error) {
	return s.hits, nil
}

type stubResolver struct {
	name string
	tier int
	url  string
}

func (r stubResolver) Name() string { return r.name }
func (r stubResolver) Tier() int    { return r.tier }
func (r stubResolver) Resolve(ctx context.Context, pub types.Publication) ([]types.URLCandidate, error) {
	if r.url == "" {
		return nil, nil
	}
	return []types.URLCandidate{{PublicationID: pub.ID, SourceName: r.name, URL: r.url, Kind: types.KindPDF, Tier: r.tier}}, nil
}

func validPDFBody() []byte {
	body := []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\n")
	padding := make([]byte, 1200-len(body))
	for i := range padding {
		padding[i] = ' '
	}
	body = append(body, padding...)
	body = append(body, []byte("\n%%EOF")...)
	return body
}

func newTestCoordinator(t *testing.T, pdfURL string) (*Coordinator, *store.Store) {
	t.Helper()
	tmp := t.TempDir()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)

	registry := sources.NewRegistry([]sources.Resolver{stubResolver{name: "stub", tier: 1, url: pdfURL}})
	dl := download.New(f, tmp+"/pdfs", 2, 100, 1<<20)
	p := parse.New(nil, parse.FallbackExtractor{})

	contentCache, err := cache.New(10, tmp+"/parsed")
	require.NoError(t, err)

	st, err := store.Open(tmp + "/db.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hot, err := hotcache.New(10, 0)
	require.NoError(t, err)

	coord := New(nil, registry, nil, nil, dl, p, contentCache, st, hot)
	return coord, st
}

func TestCoordinator_Run_EnrichesSingleDatasetPublication(t *testing.T) {
	pdfServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(validPDFBody())
	}))
	defer pdfServer.Close()

	coord, st := newTestCoordinator(t, pdfServer.URL)
	coord.search = stubSearch{hits: []geosearch.Hit{
		{
			Dataset:       *types.NewDataset("GSE1"),
			OriginalPMIDs: []types.PublicationID{"100"},
		},
	}}

	result, err := coord.Run(context.Background(), "test query", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, result.Datasets, 1)

	ds := result.Datasets[0]
	assert.Equal(t, types.DatasetID("GSE1"), ds.DatasetID)
	require.Len(t, ds.Publications, 1)
	assert.Equal(t, types.SubstatusParsed, ds.Publications[0].Substatus)
	assert.Equal(t, types.DatasetComplete, ds.Status)

	view, err := st.GetCompleteGEOData(context.Background(), "GSE1")
	require.NoError(t, err)
	require.Len(t, view.Publications, 1)
	assert.True(t, view.Publications[0].HasExtraction)
}

func TestCoordinator_Run_EnrichmentDisabledStopsAtMetadataOnly(t *testing.T) {
	coord, _ := newTestCoordinator(t, "")
	coord.search = stubSearch{hits: []geosearch.Hit{
		{Dataset: *types.NewDataset("GSE2"), OriginalPMIDs: []types.PublicationID{"200"}},
	}}

	opts := types.DefaultRunOptions()
	opts.EnableEnrichment = false

	result, err := coord.Run(context.Background(), "q", 5, opts)
	require.NoError(t, err)
	require.Len(t, result.Datasets, 1)
	require.Len(t, result.Datasets[0].Publications, 1)
	assert.Equal(t, types.SubstatusMetadataOnly, result.Datasets[0].Publications[0].Substatus)
}

func TestCoordinator_Run_NoCandidatesYieldsPartialDataset(t *testing.T) {
	coord, _ := newTestCoordinator(t, "")
	coord.search = stubSearch{hits: []geosearch.Hit{
		{Dataset: *types.NewDataset("GSE3"), OriginalPMIDs: []types.PublicationID{"300"}},
	}}

	result, err := coord.Run(context.Background(), "q", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, result.Datasets, 1)
	assert.Equal(t, types.DatasetPartial, result.Datasets[0].Status)
}

func TestCoordinator_Run_EmptyPublicationsCompletesCleanly(t *testing.T) {
	coord, _ := newTestCoordinator(t, "")
	coord.search = stubSearch{hits: []geosearch.Hit{
		{Dataset: *types.NewDataset("GSE4")},
	}}

	result, err := coord.Run(context.Background(), "q", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, result.Datasets, 1)
	assert.Empty(t, result.Datasets[0].Publications)
	assert.Equal(t, types.DatasetComplete, result.Datasets[0].Status)
}

func TestCoordinator_Run_SecondRunDoesNotRedownloadSuccessfulAcquisition(t *testing.T) {
	var downloads int
	pdfServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		_, _ = w.Write(validPDFBody())
	}))
	defer pdfServer.Close()

	coord, st := newTestCoordinator(t, pdfServer.URL)
	coord.search = stubSearch{hits: []geosearch.Hit{
		{Dataset: *types.NewDataset("GSE5"), OriginalPMIDs: []types.PublicationID{"500"}},
	}}

	first, err := coord.Run(context.Background(), "q", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, first.Datasets, 1)
	require.Len(t, first.Datasets[0].Publications, 1)
	assert.Equal(t, types.SubstatusParsed, first.Datasets[0].Publications[0].Substatus)
	assert.Equal(t, 1, downloads)

	second, err := coord.Run(context.Background(), "q", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, second.Datasets, 1)
	require.Len(t, second.Datasets[0].Publications, 1)
	assert.Equal(t, types.SubstatusParsed, second.Datasets[0].Publications[0].Substatus)
	assert.Equal(t, 1, downloads, "second run must not re-download an already-successful acquisition")

	acq, found, err := st.GetSuccessfulAcquisition(context.Background(), "500")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, types.StatusSuccess, acq.Status)
}

func TestCoordinator_Run_MultipleDatasetsAreIndependent(t *testing.T) {
	pdfServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(validPDFBody())
	}))
	defer pdfServer.Close()

	coord, _ := newTestCoordinator(t, pdfServer.URL)
	coord.search = stubSearch{hits: []geosearch.Hit{
		{Dataset: *types.NewDataset("GSE10"), OriginalPMIDs: []types.PublicationID{"1"}},
		{Dataset: *types.NewDataset("GSE11"), OriginalPMIDs: []types.PublicationID{"2"}},
	}}

	result, err := coord.Run(context.Background(), "q", 5, types.DefaultRunOptions())
	require.NoError(t, err)
	assert.Len(t, result.Datasets, 2)
}
