package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysubinoy/adrakdb/internal/store"
	"github.com/heysubinoy/adrakdb/pkg/kv"
)

func TestInstrumentedEngine_CountsAndLatencies(t *testing.T) {
	inner, err := store.OpenLogStore(t.TempDir(), store.Options{})
	require.NoError(t, err)

	eng := store.NewInstrumentedEngine(inner)
	defer eng.Close()

	// Nothing recorded yet: counts and averages are all zero.
	snap := eng.Metrics()
	assert.Zero(t, snap.GetCount)
	assert.Zero(t, snap.SetCount)
	assert.Zero(t, snap.RemoveCount)
	assert.Equal(t, time.Duration(0), snap.GetAvgLatency)
	assert.Equal(t, time.Duration(0), snap.SetAvgLatency)
	assert.Equal(t, time.Duration(0), snap.RemoveAvgLatency)

	require.NoError(t, eng.Set("a", "1"))
	require.NoError(t, eng.Set("b", "2"))
	require.NoError(t, eng.Set("a", "3"))

	val, found, err := eng.Get("a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "3", val)

	_, found, err = eng.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, eng.Remove("b"))
	// Failed operations are timed and counted like successful ones.
	assert.ErrorIs(t, eng.Remove("b"), kv.ErrKeyNotFound)

	snap = eng.Metrics()
	assert.Equal(t, uint64(2), snap.GetCount)
	assert.Equal(t, uint64(3), snap.SetCount)
	assert.Equal(t, uint64(2), snap.RemoveCount)
	assert.Greater(t, snap.GetAvgLatency, time.Duration(0))
	assert.Greater(t, snap.SetAvgLatency, time.Duration(0))
	assert.Greater(t, snap.RemoveAvgLatency, time.Duration(0))
}

func TestInstrumentedEngine_DelegatesResults(t *testing.T) {
	inner, err := store.OpenLogStore(t.TempDir(), store.Options{})
	require.NoError(t, err)

	eng := store.NewInstrumentedEngine(inner)
	defer eng.Close()

	require.NoError(t, eng.Set("k", "v"))

	val, found, err := eng.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", val)

	require.NoError(t, eng.Remove("k"))
	_, found, err = eng.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}
