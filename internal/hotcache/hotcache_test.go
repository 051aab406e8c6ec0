// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hotcache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/pkg/types"
)

func TestCache_MissThenHit(t *testing.T) {
	c, err := New(10, time.Hour)
	require.NoError(t, err)

	var loads int32
	load := func(id types.DatasetID) (CachedDataset, error) {
		atomic.AddInt32(&loads, 1)
		return CachedDataset{Dataset: types.Dataset{ID: id}}, nil
	}

	v1, err := c.Get("GSE1", load)
	require.NoError(t, err)
	assert.Equal(t, types.DatasetID("GSE1"), v1.Dataset.ID)

	v2, err := c.Get("GSE1", load)
	require.NoError(t, err)
	assert.Equal(t, types.DatasetID("GSE1"), v2.Dataset.ID)

	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestCache_ExpiredEntryIsAMiss(t *testing.T) {
	c, err := New(10, time.Millisecond)
	require.NoError(t, err)

	load := func(id types.DatasetID) (CachedDataset, error) {
		return CachedDataset{Dataset: types.Dataset{ID: id}}, nil
	}
	_, err = c.Get("GSE1", load)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = c.Get("GSE1", load)
	require.NoError(t, err)

	assert.EqualValues(t, 2, c.Stats().Misses)
}

func TestCache_ConcurrentMissesCoalesce(t *testing.T) {
	c, err := New(10, time.Hour)
	require.NoError(t, err)

	var loads int32
	load := func(id types.DatasetID) (CachedDataset, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return CachedDataset{Dataset: types.Dataset{ID: id}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get("GSE1", load)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	c, err := New(10, time.Hour)
	require.NoError(t, err)

	var loads int32
	load := func(id types.DatasetID) (CachedDataset, error) {
		atomic.AddInt32(&loads, 1)
		return CachedDataset{Dataset: types.Dataset{ID: id}}, nil
	}

	_, err = c.Get("GSE1", load)
	require.NoError(t, err)
	c.Invalidate("GSE1")
	_, err = c.Get("GSE1", load)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&loads))
}

func TestCache_EvictionTracked(t *testing.T) {
	c, err := New(1, time.Hour)
	require.NoError(t, err)

	load := func(id types.DatasetID) (CachedDataset, error) {
		return CachedDataset{Dataset: types.Dataset{ID: id}}, nil
	}
	_, err = c.Get("GSE1", load)
	require.NoError(t, err)
	_, err = c.Get("GSE2", load)
	require.NoError(t, err)

	assert.EqualValues(t, 1, c.Stats().Evictions)
}
