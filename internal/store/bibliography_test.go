// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/geo-engine/pkg/types"
)

func TestStore_ExportCSL_WritesYAMLBibliography(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := types.NewDataset("GSE2")
	d.Title = "a dataset"
	require.NoError(t, s.UpsertDataset(ctx, d))

	pub := types.Publication{
		ID:           "PMID:1",
		CanonicalDOI: "10.1/xyz",
		Title:        "a paper",
		Authors:      []string{"Smith J", "unsplit-name"},
		Year:         2020,
		Abstract:     "an abstract",
	}
	require.NoError(t, s.LinkPublication(ctx, "GSE2", pub, types.RoleOrigin))

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSL(ctx, "GSE2", &buf))

	var bib cslBibliography
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &bib))
	require.Len(t, bib.References, 1)
	item := bib.References[0]
	assert.Equal(t, "PMID:1", item.ID)
	assert.Equal(t, "a paper", item.Title)
	assert.Equal(t, "10.1/xyz", item.DOI)
	assert.Equal(t, string(types.RoleOrigin), item.Note)
	require.NotNil(t, item.Issued)
	assert.Equal(t, [][]int{{2020}}, item.Issued.DateParts)
	require.Len(t, item.Author, 2)
	assert.Equal(t, "Smith", item.Author[0].Family)
	assert.Equal(t, "J", item.Author[0].Given)
	assert.Equal(t, "unsplit-name", item.Author[1].Literal)
}

func TestStore_ExportCSL_UnknownDatasetErrors(t *testing.T) {
	s := newTestStore(t)
	var buf bytes.Buffer
	err := s.ExportCSL(context.Background(), "GSE404", &buf)
	assert.Error(t, err)
}
