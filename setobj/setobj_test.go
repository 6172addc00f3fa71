package setobj

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func members(s *Set) []string {
	var out []string
	for _, m := range s.Members() {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}

func TestIntsetEncodingForIntegers(t *testing.T) {
	s := New(config.Default())
	s.Add([]byte("1"))
	s.Add([]byte("2"))
	s.Add([]byte("3"))
	require.Equal(t, EncIntset, s.Encoding())
	require.Equal(t, 3, s.Len())
}

func TestConvertsToHashtableOnNonInteger(t *testing.T) {
	s := New(config.Default())
	s.Add([]byte("1"))
	s.Add([]byte("hello"))
	require.Equal(t, EncHashtable, s.Encoding())
	require.True(t, s.Contains([]byte("1")))
	require.True(t, s.Contains([]byte("hello")))
}

func TestConvertsOnSizeThreshold(t *testing.T) {
	p := config.Default()
	p.MaxIntsetEntries = 4
	s := New(p)
	for i := 0; i < 4; i++ {
		s.Add([]byte{byte('0' + i)})
	}
	require.Equal(t, EncIntset, s.Encoding())
	s.Add([]byte("5"))
	require.Equal(t, EncHashtable, s.Encoding())
}

func TestUnionIntersectDiffIntsetFastPath(t *testing.T) {
	p := config.Default()
	a := New(p)
	b := New(p)
	for _, v := range []string{"1", "2", "3"} {
		a.Add([]byte(v))
	}
	for _, v := range []string{"2", "3", "4"} {
		b.Add([]byte(v))
	}

	u := Union(p, a, b)
	require.Equal(t, []string{"1", "2", "3", "4"}, members(u))

	i := Inter(p, a, b)
	require.Equal(t, []string{"2", "3"}, members(i))

	d := Diff(p, a, b)
	require.Equal(t, []string{"1"}, members(d))
}

func TestUnionFallsBackForMixedEncoding(t *testing.T) {
	p := config.Default()
	a := New(p)
	b := New(p)
	a.Add([]byte("1"))
	a.Add([]byte("text"))
	b.Add([]byte("1"))
	b.Add([]byte("2"))

	u := Union(p, a, b)
	require.Equal(t, []string{"1", "2", "text"}, members(u))
}

func TestPop(t *testing.T) {
	s := New(config.Default())
	s.Add([]byte("1"))
	s.Add([]byte("2"))
	s.Add([]byte("3"))

	rnd := rand.New(rand.NewSource(1))
	popped, err := s.Pop(2, rnd)
	require.NoError(t, err)
	require.Len(t, popped, 2)
	require.Equal(t, 1, s.Len())
}

func TestPopAllWhenNExceedsSize(t *testing.T) {
	s := New(config.Default())
	s.Add([]byte("1"))
	s.Add([]byte("2"))

	rnd := rand.New(rand.NewSource(1))
	popped, err := s.Pop(5, rnd)
	require.NoError(t, err)
	require.Len(t, popped, 2)
	require.Equal(t, 0, s.Len())
}

func TestRandomMember(t *testing.T) {
	s := New(config.Default())
	s.Add([]byte("1"))
	s.Add([]byte("2"))
	s.Add([]byte("3"))

	rnd := rand.New(rand.NewSource(1))
	m, ok := s.RandomMember(rnd)
	require.True(t, ok)
	require.Contains(t, []string{"1", "2", "3"}, string(m))
	require.Equal(t, 3, s.Len())
}

func TestUnionInterDiffAcrossThreeSets(t *testing.T) {
	p := config.Default()
	a, b, c := New(p), New(p), New(p)
	for _, v := range []string{"1", "2", "3"} {
		a.Add([]byte(v))
	}
	for _, v := range []string{"2", "3", "4"} {
		b.Add([]byte(v))
	}
	for _, v := range []string{"2", "5"} {
		c.Add([]byte(v))
	}

	u := Union(p, a, b, c)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, members(u))

	i := Inter(p, a, b, c)
	require.Equal(t, []string{"2"}, members(i))

	d := Diff(p, a, b, c)
	require.Equal(t, []string{"1"}, members(d))
}
