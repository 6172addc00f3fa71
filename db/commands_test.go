package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/kverrors"
)

func TestListCommandsCreateAndDispatch(t *testing.T) {
	d := New(config.Default())
	n, err := d.RPush([]byte("mylist"), []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = d.LPush([]byte("mylist"), []byte("z"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	vals, err := d.LRange([]byte("mylist"), 0, -1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("z"), []byte("a"), []byte("b")}, vals)

	v, ok, err := d.LPop([]byte("mylist"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "z", string(v))
}

func TestListPopDeletesKeyWhenEmpty(t *testing.T) {
	d := New(config.Default())
	d.RPush([]byte("k"), []byte("only"))
	_, ok, err := d.LPop([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, d.Exists([]byte("k")))
}

func TestSetCommandsCreateAndDispatch(t *testing.T) {
	d := New(config.Default())
	n, err := d.SAdd([]byte("myset"), []byte("1"), []byte("2"), []byte("3"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	ok, err := d.SIsMember([]byte("myset"), []byte("2"))
	require.NoError(t, err)
	require.True(t, ok)

	card, err := d.SCard([]byte("myset"))
	require.NoError(t, err)
	require.Equal(t, 3, card)
}

func TestSetAlgebraAcrossKeys(t *testing.T) {
	d := New(config.Default())
	d.SAdd([]byte("a"), []byte("1"), []byte("2"))
	d.SAdd([]byte("b"), []byte("2"), []byte("3"))

	u, err := d.SUnion([]byte("a"), []byte("b"))
	require.NoError(t, err)
	require.Len(t, u, 3)

	i, err := d.SInter([]byte("a"), []byte("b"))
	require.NoError(t, err)
	require.Len(t, i, 1)
}

func TestHashCommandsCreateAndDispatch(t *testing.T) {
	d := New(config.Default())
	created, err := d.HSet([]byte("myhash"), []byte("f1"), []byte("v1"))
	require.NoError(t, err)
	require.True(t, created)

	v, ok, err := d.HGet([]byte("myhash"), []byte("f1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", string(v))

	next, err := d.HIncrBy([]byte("counters"), []byte("hits"), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), next)
}

func TestZSetCommandsCreateAndDispatch(t *testing.T) {
	d := New(config.Default())
	created, err := d.ZAdd([]byte("myzset"), []byte("alice"), 10)
	require.NoError(t, err)
	require.True(t, created)

	d.ZAdd([]byte("myzset"), []byte("bob"), 5)
	members, scores, err := d.ZRange([]byte("myzset"), 0, -1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("bob"), []byte("alice")}, members)
	require.Equal(t, []float64{5, 10}, scores)
}

func TestWrongTypeOnTagMismatch(t *testing.T) {
	d := New(config.Default())
	o := d.Pool().MakeString([]byte("v1"))
	d.Overwrite([]byte("k1"), o)

	_, err := d.LPush([]byte("k1"), []byte("x"))
	require.Error(t, err)
	require.True(t, kverrors.OfKind(err, kverrors.WrongType))

	_, err = d.SAdd([]byte("k1"), []byte("x"))
	require.Error(t, err)
	require.True(t, kverrors.OfKind(err, kverrors.WrongType))

	_, err = d.HSet([]byte("k1"), []byte("f"), []byte("v"))
	require.Error(t, err)
	require.True(t, kverrors.OfKind(err, kverrors.WrongType))

	_, err = d.ZAdd([]byte("k1"), []byte("m"), 1)
	require.Error(t, err)
	require.True(t, kverrors.OfKind(err, kverrors.WrongType))
}
