package listobj

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func TestPushAndRange(t *testing.T) {
	l := New(config.Default())
	l.PushTail([]byte("a"), []byte("b"), []byte("c"))

	require.Equal(t, 3, l.Len())
	r := l.Range(0, -1)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, r)
}

func TestTrim(t *testing.T) {
	l := New(config.Default())
	l.PushTail([]byte("a"), []byte("b"), []byte("c"), []byte("d"))
	l.Trim(1, 2)
	require.Equal(t, [][]byte{[]byte("b"), []byte("c")}, l.All())
}

func TestInsertBeforeAfter(t *testing.T) {
	l := New(config.Default())
	l.PushTail([]byte("a"), []byte("c"))
	require.True(t, l.InsertAfter([]byte("a"), []byte("b")))
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, l.All())
}

func TestRemove(t *testing.T) {
	l := New(config.Default())
	l.PushTail([]byte("x"), []byte("y"), []byte("x"), []byte("x"))
	n := l.Remove([]byte("x"), 2)
	require.Equal(t, 2, n)
	require.Equal(t, [][]byte{[]byte("y"), []byte("x")}, l.All())
}

func TestSetIndex(t *testing.T) {
	l := New(config.Default())
	l.PushTail([]byte("a"), []byte("b"))
	require.NoError(t, l.Set(1, []byte("z")))
	v, ok := l.Index(1)
	require.True(t, ok)
	require.Equal(t, "z", string(v))
}
