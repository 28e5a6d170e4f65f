package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"matchbook/internal/engine"
)

func TestJournal_AppendAssignsIncreasingSequence(t *testing.T) {
	j := New()
	now := time.Unix(0, 0)

	r1 := j.Append(Rested, engine.Buy, 10, 100, 0, 1, true, "alice", now)
	r2 := j.Append(Filled, engine.Sell, 5, 100, 500, 0, false, "bob", now)

	assert.Equal(t, uint64(1), r1.Seq)
	assert.Equal(t, uint64(2), r2.Seq)
	assert.Equal(t, 2, j.Len())
}

func TestJournal_SinceReturnsOnlyNewerRecords(t *testing.T) {
	j := New()
	now := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		j.Append(Rested, engine.Buy, int64(i+1), 100, 0, uint64(i), true, "alice", now)
	}

	recent := j.Since(3)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(4), recent[0].Seq)
	assert.Equal(t, uint64(5), recent[1].Seq)
}

func TestJournal_SinceFromZeroReturnsEverything(t *testing.T) {
	j := New()
	now := time.Unix(0, 0)
	j.Append(Rested, engine.Buy, 1, 100, 0, 1, true, "alice", now)
	j.Append(Rested, engine.Sell, 1, 101, 0, 2, true, "bob", now)

	assert.Len(t, j.Since(0), 2)
}
