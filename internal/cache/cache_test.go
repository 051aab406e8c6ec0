// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/pkg/types"
)

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c, err := New(10, t.TempDir())
	require.NoError(t, err)

	content := types.ExtractedContent{
		PublicationID: "1",
		PDFSHA256:     "abc",
		Sections:      map[types.SectionName]string{types.SectionAbstract: "text"},
	}
	require.NoError(t, c.Put(content))

	got, ok := c.Get("1", "abc")
	require.True(t, ok)
	assert.Equal(t, "text", got.Sections[types.SectionAbstract])
}

func TestCache_StaleHashIsAMiss(t *testing.T) {
	c, err := New(10, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put(types.ExtractedContent{PublicationID: "1", PDFSHA256: "old"}))

	_, ok := c.Get("1", "new")
	assert.False(t, ok)
}

func TestCache_DiskTierServesAfterMemoryEviction(t *testing.T) {
	root := t.TempDir()
	c, err := New(1, root)
	require.NoError(t, err)

	require.NoError(t, c.Put(types.ExtractedContent{PublicationID: "1", PDFSHA256: "h1"}))
	require.NoError(t, c.Put(types.ExtractedContent{PublicationID: "2", PDFSHA256: "h2"}))

	// Memory tier holds only 1 entry; publication "1" was evicted from
	// memory but must still be served from disk.
	got, ok := c.Get("1", "h1")
	require.True(t, ok)
	assert.Equal(t, types.PublicationID("1"), got.PublicationID)
}

func TestCache_MissingKeyIsAMiss(t *testing.T) {
	c, err := New(10, t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("nonexistent", "x")
	assert.False(t, ok)
}
