// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

func TestUnpaywall_ResolvesPDFURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"best_oa_location": {"url_for_pdf": "https://example.org/paper.pdf"}}`))
	}))
	defer srv.Close()

	origBase := unpaywallAPIBase
	unpaywallAPIBase = srv.URL + "/"
	defer func() { unpaywallAPIBase = origBase }()

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	u := NewUnpaywall(f, 2, "test@example.org")
	candidates, err := u.Resolve(context.Background(), types.Publication{ID: "38376465", CanonicalDOI: "10.1000/xyz"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "https://example.org/paper.pdf", candidates[0].URL)
	require.Equal(t, types.KindPDF, candidates[0].Kind)
	require.Equal(t, 2, candidates[0].Tier)
}

func TestUnpaywall_NoDOIReturnsEmpty(t *testing.T) {
	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	defer f.Close()

	u := NewUnpaywall(f, 2, "")
	candidates, err := u.Resolve(context.Background(), types.Publication{ID: "1"})
	require.NoError(t, err)
	require.Empty(t, candidates)
}
