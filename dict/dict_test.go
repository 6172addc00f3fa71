package dict

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDict() *Dict {
	return New(BytesKeyDescriptor(), 4)
}

func key(s string) interface{} { return []byte(s) }

func TestAddFindDelete(t *testing.T) {
	d := newTestDict()
	require.True(t, d.AddOrErr(key("a"), 1))
	require.False(t, d.AddOrErr(key("a"), 2))

	v, ok := d.Find(key("a"))
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.True(t, d.Delete(key("a")))
	_, ok = d.Find(key("a"))
	require.False(t, ok)
}

func TestReplace(t *testing.T) {
	d := newTestDict()
	inserted := d.Replace(key("a"), 1)
	require.True(t, inserted)
	inserted = d.Replace(key("a"), 2)
	require.False(t, inserted)
	v, _ := d.Find(key("a"))
	require.Equal(t, 2, v)
}

func TestRehashAcrossExpand(t *testing.T) {
	d := newTestDict()
	for i := 0; i < 1000; i++ {
		d.AddOrErr(key(string(rune(i))), i)
	}
	for i := 0; i < 1000; i++ {
		v, ok := d.Find(key(string(rune(i))))
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.Equal(t, 1000, d.Used())
}

func TestScanVisitsEveryStablePresentKey(t *testing.T) {
	d := newTestDict()
	want := map[string]bool{}
	for i := 0; i < 200; i++ {
		k := string(rune(i))
		d.AddOrErr(key(k), i)
		want[k] = true
	}

	seen := map[string]bool{}
	cursor := uint64(0)
	for {
		cursor = d.Scan(cursor, func(k, v interface{}) {
			seen[string(k.([]byte))] = true
		})
		if cursor == 0 {
			break
		}
	}
	for k := range want {
		require.True(t, seen[k], "key %q should have been visited", k)
	}
}

func TestSampleNoDuplicates(t *testing.T) {
	d := newTestDict()
	for i := 0; i < 50; i++ {
		d.AddOrErr(key(string(rune(i))), i)
	}
	rnd := rand.New(rand.NewSource(1))
	out := d.Sample(20, rnd)
	seen := map[string]bool{}
	for _, kv := range out {
		k := string(kv.Key.([]byte))
		require.False(t, seen[k])
		seen[k] = true
	}
}

func TestUnsafeIteratorReleaseOkWithoutMutation(t *testing.T) {
	d := newTestDict()
	d.AddOrErr(key("a"), 1)
	it := d.NewUnsafeIterator()
	_, _, _ = it.Next()
	require.NotPanics(t, func() { it.Release() })
}

func TestSafeIteratorAllowsMutation(t *testing.T) {
	d := newTestDict()
	d.AddOrErr(key("a"), 1)
	it := d.NewSafeIterator()
	_, _, _ = it.Next()
	d.AddOrErr(key("b"), 2)
	require.NotPanics(t, func() { it.Release() })
}
