package orderedindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndScore(t *testing.T) {
	ix := New()
	require.True(t, ix.Insert([]byte("alice"), 10))
	require.False(t, ix.Insert([]byte("alice"), 20))

	s, ok := ix.Score([]byte("alice"))
	require.True(t, ok)
	require.Equal(t, float64(20), s)
}

func TestRankAscending(t *testing.T) {
	ix := New()
	ix.Insert([]byte("c"), 3)
	ix.Insert([]byte("a"), 1)
	ix.Insert([]byte("b"), 2)

	r, ok := ix.Rank([]byte("a"))
	require.True(t, ok)
	require.Equal(t, 0, r)

	r, ok = ix.Rank([]byte("c"))
	require.True(t, ok)
	require.Equal(t, 2, r)
}

func TestRangeByScore(t *testing.T) {
	ix := New()
	ix.Insert([]byte("a"), 1)
	ix.Insert([]byte("b"), 2)
	ix.Insert([]byte("c"), 3)
	ix.Insert([]byte("d"), 4)

	items := ix.RangeByScore(2, 3, false, false)
	require.Len(t, items, 2)
	require.Equal(t, "b", string(items[0].Member))
	require.Equal(t, "c", string(items[1].Member))
}

func TestRangeByScoreExclusiveBounds(t *testing.T) {
	ix := New()
	ix.Insert([]byte("a"), 1)
	ix.Insert([]byte("b"), 2)
	ix.Insert([]byte("c"), 3)
	ix.Insert([]byte("d"), 4)

	items := ix.RangeByScore(1, 4, true, true)
	require.Len(t, items, 2)
	require.Equal(t, "b", string(items[0].Member))
	require.Equal(t, "c", string(items[1].Member))

	items = ix.RangeByScore(1, 4, true, false)
	require.Len(t, items, 3)
	require.Equal(t, "d", string(items[2].Member))
}

func TestRangeByRankNegativeIndices(t *testing.T) {
	ix := New()
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		ix.Insert([]byte(m), float64(i))
	}
	items := ix.RangeByRank(-2, -1)
	require.Len(t, items, 2)
	require.Equal(t, "d", string(items[0].Member))
	require.Equal(t, "e", string(items[1].Member))
}

func TestDelete(t *testing.T) {
	ix := New()
	ix.Insert([]byte("x"), 1)
	require.True(t, ix.Delete([]byte("x")))
	require.False(t, ix.Delete([]byte("x")))
	require.Equal(t, 0, ix.Len())
}

func TestTieBreakByMember(t *testing.T) {
	ix := New()
	ix.Insert([]byte("zebra"), 5)
	ix.Insert([]byte("apple"), 5)

	items := ix.RangeByScore(5, 5, false, false)
	require.Len(t, items, 2)
	require.Equal(t, "apple", string(items[0].Member))
	require.Equal(t, "zebra", string(items[1].Member))
}
