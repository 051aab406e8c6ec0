// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UpsertDatasetIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := types.NewDataset("GSE1")
	d.Title = "first title"
	require.NoError(t, s.UpsertDataset(ctx, d))

	d.Title = "updated title"
	require.NoError(t, s.UpsertDataset(ctx, d))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	assert.Equal(t, "updated title", got.Dataset.Title)
}

func TestStore_LinkPublicationOriginWinsOverCiting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDataset(ctx, types.NewDataset("GSE1")))

	pub := types.Publication{ID: "38376465", Title: "a paper"}
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleCiting))
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleOrigin))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	require.Len(t, got.Publications, 1)
	assert.Equal(t, types.RoleOrigin, got.Publications[0].Role)
}

func TestStore_LinkPublicationKeepsOriginAgainstLaterCiting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDataset(ctx, types.NewDataset("GSE1")))
	pub := types.Publication{ID: "1"}
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleOrigin))
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleCiting))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	require.Len(t, got.Publications, 1)
	assert.Equal(t, types.RoleOrigin, got.Publications[0].Role)
}

func TestStore_RecordPDFAcquisitionMarksLaterSuccessRedundant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDataset(ctx, types.NewDataset("GSE1")))
	pub := types.Publication{ID: "1"}
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleOrigin))

	first := types.PDFAcquisition{PublicationID: "1", Status: types.StatusSuccess, SHA256: "aaa", DownloadedAt: time.Now()}
	require.NoError(t, s.RecordPDFAcquisition(ctx, first))

	second := types.PDFAcquisition{PublicationID: "1", Status: types.StatusSuccess, SHA256: "bbb", DownloadedAt: time.Now().Add(time.Second)}
	require.NoError(t, s.RecordPDFAcquisition(ctx, second))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	require.Len(t, got.Publications, 1)
	assert.Equal(t, types.StatusSuccess, got.Publications[0].PDFStatus)

	current, found, err := s.GetSuccessfulAcquisition(ctx, "1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "aaa", current.SHA256)
}

func TestStore_UpsertExtractedContentRejectsHashMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDataset(ctx, types.NewDataset("GSE1")))
	pub := types.Publication{ID: "1"}
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleOrigin))
	require.NoError(t, s.RecordPDFAcquisition(ctx, types.PDFAcquisition{
		PublicationID: "1", Status: types.StatusSuccess, SHA256: "current-hash",
	}))

	err := s.UpsertExtractedContent(ctx, types.ExtractedContent{
		PublicationID: "1", PDFSHA256: "stale-hash",
	})
	assert.Error(t, err)

	require.NoError(t, s.UpsertExtractedContent(ctx, types.ExtractedContent{
		PublicationID: "1", PDFSHA256: "current-hash",
		Sections: map[types.SectionName]string{types.SectionAbstract: "abstract text"},
	}))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	assert.True(t, got.Publications[0].HasExtraction)
}

func TestStore_RecordURLCandidateIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDataset(ctx, types.NewDataset("GSE1")))
	pub := types.Publication{ID: "1"}
	require.NoError(t, s.LinkPublication(ctx, "GSE1", pub, types.RoleOrigin))

	c := types.URLCandidate{PublicationID: "1", SourceName: "unpaywall", URL: "https://x/pdf", Kind: types.KindPDF, Tier: 1, DiscoveredAt: time.Now()}
	require.NoError(t, s.RecordURLCandidate(ctx, c))
	require.NoError(t, s.RecordURLCandidate(ctx, c))

	got, err := s.GetCompleteGEOData(ctx, "GSE1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Publications[0].URLCount)
}

func TestStore_AppendEventAndGetCompleteGEOData_MissingDataset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, types.PipelineEvent{
		DatasetID: "GSE1", Stage: types.StageSearch, Outcome: types.OutcomeOK,
	}))

	_, err := s.GetCompleteGEOData(ctx, "nonexistent")
	assert.Error(t, err)
}
