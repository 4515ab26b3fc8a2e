package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A failure in the copy phase must abort compaction cleanly: the error
// surfaces to the caller, the compacting flag resets and the engine
// keeps serving reads and writes.
func TestCompactAbortsCleanlyOnUnreadableRecord(t *testing.T) {
	s, err := OpenLogStore(t.TempDir(), Options{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("good", "value"))

	// An index entry pointing past its segment's end makes the copy
	// phase fail on the read.
	s.mu.Lock()
	s.index["phantom"] = recordPos{gen: s.active.gen, offset: 1 << 20, size: 16}
	s.compacting = true
	s.mu.Unlock()

	assert.Error(t, s.compact())

	s.mu.RLock()
	compacting := s.compacting
	s.mu.RUnlock()
	assert.False(t, compacting, "aborted compaction left the compacting flag set")

	s.mu.Lock()
	delete(s.index, "phantom")
	s.mu.Unlock()

	require.NoError(t, s.Set("after", "ok"))

	val, found, err := s.Get("good")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "value", val)

	val, found, err = s.Get("after")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ok", val)
}
