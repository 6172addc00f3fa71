package hashobj

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/kverrors"
)

func TestSetGetZiplist(t *testing.T) {
	h := New(config.Default())
	require.True(t, h.Set([]byte("f1"), []byte("v1"), CopyField))
	require.False(t, h.Set([]byte("f1"), []byte("v2"), CopyField))

	v, ok := h.Get([]byte("f1"))
	require.True(t, ok)
	require.Equal(t, "v2", string(v))
	require.Equal(t, EncZiplist, h.Encoding())
}

func TestConvertsOnEntryCount(t *testing.T) {
	p := config.Default()
	p.MaxZiplistEntries = 2
	h := New(p)
	h.Set([]byte("f1"), []byte("v1"), CopyField)
	h.Set([]byte("f2"), []byte("v2"), CopyField)
	require.Equal(t, EncZiplist, h.Encoding())
	h.Set([]byte("f3"), []byte("v3"), CopyField)
	require.Equal(t, EncHashtable, h.Encoding())
	require.Equal(t, 3, h.Len())
}

func TestConvertsOnValueSize(t *testing.T) {
	p := config.Default()
	p.MaxZiplistValue = 4
	h := New(p)
	h.Set([]byte("f1"), []byte("short"), CopyField)
	require.Equal(t, EncHashtable, h.Encoding())
}

func TestDelete(t *testing.T) {
	h := New(config.Default())
	h.Set([]byte("f1"), []byte("v1"), CopyField)
	require.True(t, h.Delete([]byte("f1")))
	require.False(t, h.Exists([]byte("f1")))
	require.False(t, h.Delete([]byte("f1")))
}

func TestIncrBy(t *testing.T) {
	h := New(config.Default())
	v, err := h.IncrBy([]byte("counter"), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), v)

	v, err = h.IncrBy([]byte("counter"), -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestIncrByNonInteger(t *testing.T) {
	h := New(config.Default())
	h.Set([]byte("f1"), []byte("notanumber"), CopyField)
	_, err := h.IncrBy([]byte("f1"), 1)
	require.Error(t, err)
	require.True(t, kverrors.OfKind(err, kverrors.NotInteger))
}

func TestIncrByFloat(t *testing.T) {
	h := New(config.Default())
	v, err := h.IncrByFloat([]byte("f1"), 1.5)
	require.NoError(t, err)
	require.Equal(t, 1.5, v)

	v, err = h.IncrByFloat([]byte("f1"), 0.5)
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
}

func TestAllAndFields(t *testing.T) {
	h := New(config.Default())
	h.Set([]byte("a"), []byte("1"), CopyField)
	h.Set([]byte("b"), []byte("2"), CopyField)

	all := h.All()
	require.Equal(t, "1", string(all["a"]))
	require.Equal(t, "2", string(all["b"]))
	require.Len(t, h.Fields(), 2)
}
