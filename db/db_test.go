package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func TestAddKVAndLookup(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	require.NoError(t, d.AddKV([]byte("k1"), o))

	got, ok := d.LookupRead([]byte("k1"))
	require.True(t, ok)
	require.Equal(t, "v1", string(got.Bytes()))
}

func TestAddKVExists(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	require.NoError(t, d.AddKV([]byte("k1"), o))
	err := d.AddKV([]byte("k1"), o)
	require.Error(t, err)
}

func TestLookupWriteNotFound(t *testing.T) {
	d := New(config.Default())
	_, err := d.LookupWrite([]byte("missing"))
	require.Error(t, err)
}

func TestOverwriteAndDelete(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	d.Overwrite([]byte("k1"), o)
	require.True(t, d.Exists([]byte("k1")))

	require.True(t, d.Delete([]byte("k1")))
	require.False(t, d.Exists([]byte("k1")))
	require.False(t, d.Delete([]byte("k1")))
}

func TestNotifyListener(t *testing.T) {
	d := New(config.Default())
	var events []string
	d.OnNotify(func(event string, key []byte) {
		events = append(events, event)
	})
	o := d.Pool().MakeString([]byte("v1"))
	require.NoError(t, d.AddKV([]byte("k1"), o))
	d.Overwrite([]byte("k1"), o)
	d.Delete([]byte("k1"))

	require.Equal(t, []string{"new", "set", "del"}, events)
}

func TestDirtyCount(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	d.Overwrite([]byte("k1"), o)
	d.Overwrite([]byte("k2"), o)
	require.Equal(t, int64(2), d.DirtyCount())
	d.ResetDirty()
	require.Equal(t, int64(0), d.DirtyCount())
}

func TestRandomKey(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	d.Overwrite([]byte("k1"), o)
	k, ok := d.RandomKey()
	require.True(t, ok)
	require.Equal(t, "k1", string(k))
}
