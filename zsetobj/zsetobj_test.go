package zsetobj

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func TestAddAndScore(t *testing.T) {
	z := New(config.Default())
	require.True(t, z.Add([]byte("alice"), 10))
	require.False(t, z.Add([]byte("alice"), 20))

	s, ok := z.Score([]byte("alice"))
	require.True(t, ok)
	require.Equal(t, float64(20), s)
	require.Equal(t, EncZiplist, z.Encoding())
}

func TestConvertsOnEntryCount(t *testing.T) {
	p := config.Default()
	p.MaxZsetZiplistEntries = 2
	z := New(p)
	z.Add([]byte("a"), 1)
	z.Add([]byte("b"), 2)
	require.Equal(t, EncZiplist, z.Encoding())
	z.Add([]byte("c"), 3)
	require.Equal(t, EncSkiplist, z.Encoding())
}

func TestIncrBy(t *testing.T) {
	z := New(config.Default())
	v := z.IncrBy([]byte("m"), 5)
	require.Equal(t, float64(5), v)
	v = z.IncrBy([]byte("m"), -2)
	require.Equal(t, float64(3), v)
}

func TestRank(t *testing.T) {
	z := New(config.Default())
	z.Add([]byte("c"), 3)
	z.Add([]byte("a"), 1)
	z.Add([]byte("b"), 2)

	r, ok := z.Rank([]byte("a"))
	require.True(t, ok)
	require.Equal(t, 0, r)
	r, ok = z.Rank([]byte("c"))
	require.True(t, ok)
	require.Equal(t, 2, r)
}

func TestRangeByScoreAfterSkiplistConversion(t *testing.T) {
	p := config.Default()
	p.MaxZsetZiplistEntries = 1
	z := New(p)
	z.Add([]byte("a"), 1)
	z.Add([]byte("b"), 2)
	z.Add([]byte("c"), 3)
	require.Equal(t, EncSkiplist, z.Encoding())

	members, scores := z.RangeByScore(2, 3, false, false)
	require.Equal(t, [][]byte{[]byte("b"), []byte("c")}, members)
	require.Equal(t, []float64{2, 3}, scores)
}

func TestRangeByScoreExclusive(t *testing.T) {
	z := New(config.Default())
	z.Add([]byte("a"), 1)
	z.Add([]byte("b"), 2)
	z.Add([]byte("c"), 3)

	members, _ := z.RangeByScore(1, 3, true, true)
	require.Equal(t, [][]byte{[]byte("b")}, members)
}

func TestRangeByLex(t *testing.T) {
	z := New(config.Default())
	z.Add([]byte("banana"), 0)
	z.Add([]byte("apple"), 0)
	z.Add([]byte("cherry"), 0)

	members := z.RangeByLex([]byte("b"), []byte("z"))
	require.Equal(t, [][]byte{[]byte("banana"), []byte("cherry")}, members)
}

func TestRemove(t *testing.T) {
	z := New(config.Default())
	z.Add([]byte("a"), 1)
	require.True(t, z.Remove([]byte("a")))
	require.False(t, z.Contains([]byte("a")))
	require.False(t, z.Remove([]byte("a")))
}
