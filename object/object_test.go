package object

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
)

func TestMakeStringSharedIntegers(t *testing.T) {
	p := NewPool(config.Default())
	a := p.MakeStringFromInt(42)
	b := p.MakeStringFromInt(42)
	require.Same(t, a, b)
	require.True(t, a.IsShared())
}

func TestMakeStringEncodingChoice(t *testing.T) {
	p := NewPool(config.Default())
	short := p.MakeString([]byte("hello"))
	require.Equal(t, EncEmbstr, short.Encoding())

	long := p.MakeString(make([]byte, 100))
	require.Equal(t, EncRaw, long.Encoding())

	num := p.MakeString([]byte("123"))
	require.Equal(t, EncInt, num.Encoding())
}

func TestDecrefDestroysAtZero(t *testing.T) {
	p := NewPool(config.Default())
	o := p.MakeString([]byte("hello world this is a long raw string"))
	require.NotNil(t, o.Bytes())
	p.Decref(o)
	require.Equal(t, int32(0), o.Refcount())
	require.Nil(t, o.Bytes())
}

func TestDecrefNoopOnShared(t *testing.T) {
	p := NewPool(config.Default())
	o := p.MakeStringFromInt(1)
	before := o.Refcount()
	p.Decref(o)
	require.Equal(t, before, o.Refcount())
}

func TestEqual(t *testing.T) {
	p := NewPool(config.Default())
	a := p.MakeString([]byte("42"))
	b := p.MakeStringFromInt(42)
	require.True(t, Equal(a, b))
}

func TestNewContainerValidatesEncoding(t *testing.T) {
	o := NewContainer(TypeList, EncQuicklist, nil)
	require.Equal(t, TypeList, o.Type())
	require.Equal(t, EncQuicklist, o.Encoding())
}
