// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

func validPDFBody() []byte {
	body := make([]byte, 0, 2048)
	body = append(body, []byte("%PDF-1.4\n")...)
	for len(body) < 1200 {
		body = append(body, 'x')
	}
	body = append(body, []byte("\n%%EOF")...)
	return body
}

func TestManager_DownloadsFirstSucceedingCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusNotFound)
		case "/good":
			w.Write(validPDFBody())
		}
	}))
	defer srv.Close()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	root := t.TempDir()
	mgr := New(f, root, 3, 1024, 100<<20)

	candidates := []types.URLCandidate{
		{SourceName: "bad-source", URL: srv.URL + "/bad", Kind: types.KindPDF, Tier: 1},
		{SourceName: "good-source", URL: srv.URL + "/good", Kind: types.KindPDF, Tier: 2},
	}

	pub := types.Publication{ID: "38376465"}
	acq := mgr.Acquire(context.Background(), "GSE1", types.RoleOrigin, pub, candidates)

	require.Equal(t, types.StatusSuccess, acq.Status)
	assert.Equal(t, "good-source", acq.SourceName)
	assert.NotEmpty(t, acq.SHA256)
	_, statErr := os.Stat(acq.LocalPath)
	assert.NoError(t, statErr)
}

func TestManager_AllCandidatesFailYieldsPaywalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	mgr := New(f, t.TempDir(), 3, 1024, 100<<20)
	candidates := []types.URLCandidate{
		{SourceName: "s1", URL: srv.URL, Kind: types.KindPDF, Tier: 1},
	}

	acq := mgr.Acquire(context.Background(), "GSE1", types.RoleOrigin, types.Publication{ID: "1"}, candidates)
	assert.Equal(t, types.StatusPaywalled, acq.Status)
}

func TestManager_InvalidContentClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	mgr := New(f, t.TempDir(), 3, 1024, 100<<20)
	candidates := []types.URLCandidate{
		{SourceName: "s1", URL: srv.URL, Kind: types.KindPDF, Tier: 1},
	}

	acq := mgr.Acquire(context.Background(), "GSE1", types.RoleOrigin, types.Publication{ID: "1"}, candidates)
	assert.Equal(t, types.StatusInvalidContent, acq.Status)
}

func TestManager_LandingHTMLOnlyCandidatesAreRejected(t *testing.T) {
	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	mgr := New(f, t.TempDir(), 3, 1024, 100<<20)
	candidates := []types.URLCandidate{
		{SourceName: "s1", URL: "https://example.org/landing", Kind: types.KindLandingHTML, Tier: 1},
	}

	acq := mgr.Acquire(context.Background(), "GSE1", types.RoleOrigin, types.Publication{ID: "1"}, candidates)
	assert.Equal(t, types.StatusPaywalled, acq.Status)
}
