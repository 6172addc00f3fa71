package quicklist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func newTestList(fill, compressDepth int) *List {
	p := config.Default()
	p.ListFill = fill
	p.ListCompressDepth = compressDepth
	return New(p)
}

func TestPushTailSingleNode(t *testing.T) {
	l := newTestList(32, 0)
	l.PushTail([]byte("a"))
	l.PushTail([]byte("b"))
	l.PushTail([]byte("c"))

	require.Equal(t, 3, l.Len())
	require.Equal(t, 1, l.Nodes())

	_, v, ok := l.Index(0)
	require.True(t, ok)
	require.Equal(t, "a", string(v))
	_, v, ok = l.Index(2)
	require.True(t, ok)
	require.Equal(t, "c", string(v))
}

func Test500EntriesThenDeleteRange(t *testing.T) {
	l := newTestList(32, 0)
	for i := 0; i < 500; i++ {
		l.PushTail([]byte(fmt.Sprintf("item-%04d", i)))
	}
	require.Equal(t, 500, l.Len())

	removed := l.DeleteRange(200, 100)
	require.Equal(t, 100, removed)
	require.Equal(t, 400, l.Len())

	_, v, ok := l.Index(200)
	require.True(t, ok)
	require.Equal(t, "item-0300", string(v))
}

func TestPopHeadTail(t *testing.T) {
	l := newTestList(32, 0)
	l.PushTail([]byte("a"))
	l.PushTail([]byte("b"))
	l.PushTail([]byte("c"))

	v, ok := l.PopHead()
	require.True(t, ok)
	require.Equal(t, "a", string(v))

	v, ok = l.PopTail()
	require.True(t, ok)
	require.Equal(t, "c", string(v))

	require.Equal(t, 1, l.Len())
}

func TestRotateTailToHead(t *testing.T) {
	l := newTestList(32, 0)
	l.PushTail([]byte("a"))
	l.PushTail([]byte("b"))
	l.PushTail([]byte("c"))

	require.True(t, l.RotateTailToHead())
	_, v, ok := l.Index(0)
	require.True(t, ok)
	require.Equal(t, "c", string(v))
	_, v, ok = l.Index(2)
	require.True(t, ok)
	require.Equal(t, "b", string(v))
}

func TestIteratorWalksAllEntries(t *testing.T) {
	l := newTestList(4, 0)
	for i := 0; i < 20; i++ {
		l.PushTail([]byte(fmt.Sprintf("%d", i)))
	}

	it := l.NewIterator(Head)
	count := 0
	for {
		_, _, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, 20, count)
}

func TestInsertBeforeAfter(t *testing.T) {
	l := newTestList(32, 0)
	l.PushTail([]byte("a"))
	l.PushTail([]byte("c"))

	e, _, ok := l.Index(1)
	require.True(t, ok)
	l.InsertBefore(e, []byte("b"))

	require.Equal(t, 3, l.Len())
	_, v, _ := l.Index(1)
	require.Equal(t, "b", string(v))
}

func TestCompressionBoundary(t *testing.T) {
	l := newTestList(4, 1)
	for i := 0; i < 40; i++ {
		l.PushTail([]byte(fmt.Sprintf("value-%03d", i)))
	}
	require.Greater(t, l.Nodes(), 2)

	compressedInterior, ok := l.NodeCompressed(l.Nodes() - 2)
	require.True(t, ok)
	_ = compressedInterior

	headCompressed, ok := l.NodeCompressed(0)
	require.True(t, ok)
	require.False(t, headCompressed)
}
