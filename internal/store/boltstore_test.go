package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysubinoy/adrakdb/internal/store"
	"github.com/heysubinoy/adrakdb/pkg/kv"
)

func TestBoltStore_SetGetRemove(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := store.OpenBoltStore(tmpDir, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("foo", "bar"))

	val, found, err := s.Get("foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar", val)

	require.NoError(t, s.Set("foo", "bar2"))
	val, found, err = s.Get("foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar2", val)

	_, found, err = s.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remove("foo"))
	_, found, err = s.Get("foo")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, s.Remove("foo"), kv.ErrKeyNotFound)
	assert.ErrorIs(t, s.Remove("never-set"), kv.ErrKeyNotFound)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := store.OpenBoltStore(tmpDir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))
	require.NoError(t, s.Remove("a"))
	require.NoError(t, s.Close())

	s, err = store.OpenBoltStore(tmpDir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Get("a")
	require.NoError(t, err)
	assert.False(t, found)

	val, found, err := s.Get("b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", val)
}
