// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshintel/geo-engine/pkg/types"
)

type stubGraphSource struct {
	name string
	pubs []types.Publication
}

func (s stubGraphSource) Name() string { return s.name }
func (s stubGraphSource) CitingPublications(ctx context.Context, pmid types.PublicationID, limit int) ([]types.Publication, error) {
	return s.pubs, nil
}

type stubMentionSource struct {
	pubs []types.Publication
}

func (s stubMentionSource) SearchMentions(ctx context.Context, accession types.DatasetID) ([]types.Publication, error) {
	return s.pubs, nil
}

func TestFindRelated_ForcesOriginRoleRegardlessOfStrategy(t *testing.T) {
	original := []types.Publication{{ID: "100"}}
	graph := stubGraphSource{name: "g1", pubs: []types.Publication{{ID: "100", Title: "should be excluded from citing"}, {ID: "200", Title: "citer"}}}

	result := FindRelated(context.Background(), "GSE1", original, []GraphSource{graph}, nil, 5)

	assert.Len(t, result.Citing, 1)
	assert.Equal(t, types.PublicationID("200"), result.Citing[0].ID)
}

func TestFindRelated_DedupesByPMIDAcrossStrategies(t *testing.T) {
	original := []types.Publication{{ID: "100"}}
	graph := stubGraphSource{pubs: []types.Publication{{ID: "200", Title: "thin"}}}
	mention := stubMentionSource{pubs: []types.Publication{{ID: "200", Title: "richer title", Abstract: "has abstract"}}}

	result := FindRelated(context.Background(), "GSE1", original, []GraphSource{graph}, mention, 5)

	require := assert.New(t)
	require.Len(result.Citing, 1)
	require.Equal("thin", result.Citing[0].Title) // first-seen title kept, richer fields merged in
	require.Equal("has abstract", result.Citing[0].Abstract)
}

func TestFindRelated_CapsAtMaxCitingPerDataset(t *testing.T) {
	var pubs []types.Publication
	for i := 0; i < 10; i++ {
		pubs = append(pubs, types.Publication{ID: types.PublicationID(string(rune('a' + i)))})
	}
	graph := stubGraphSource{pubs: pubs}

	result := FindRelated(context.Background(), "GSE1", []types.Publication{{ID: "100"}}, []GraphSource{graph}, nil, 3)
	assert.Len(t, result.Citing, 3)
}

func TestFindRelated_DedupesByNormalizedTitleWhenNoPMID(t *testing.T) {
	graph := stubGraphSource{pubs: []types.Publication{
		{Title: "A Study of Things"},
		{Title: "a study of things!"},
	}}
	result := FindRelated(context.Background(), "GSE1", []types.Publication{{ID: "100"}}, []GraphSource{graph}, nil, 5)
	assert.Len(t, result.Citing, 1)
}
