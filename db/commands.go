package db

import (
	"github.com/ledgerwatch/kvengine/hashobj"
	"github.com/ledgerwatch/kvengine/kverrors"
	"github.com/ledgerwatch/kvengine/listobj"
	"github.com/ledgerwatch/kvengine/object"
	"github.com/ledgerwatch/kvengine/setobj"
	"github.com/ledgerwatch/kvengine/zsetobj"
)

// container fetches key's engine-owned representation, creating it
// with build if key is absent, and raising kverrors.WrongType if it
// exists under a different type tag (spec §2/§3.6: the façade
// "dispatches on the value's type tag to the corresponding engine").
func (d *DB) container(key []byte, typ object.Type, enc object.Encoding, build func() interface{}) (interface{}, error) {
	if v, ok := d.keys.Find(string(key)); ok {
		o := v.(*object.Object)
		if o.Type() != typ {
			return nil, kverrors.New(kverrors.WrongType, "operation against a key holding the wrong kind of value")
		}
		return o.Container, nil
	}
	c := build()
	o := object.NewContainer(typ, enc, c)
	d.keys.AddOrErr(string(key), o)
	d.dirtyInc()
	d.notify("new", key)
	return c, nil
}

// typedContainer fetches key's existing container without creating
// one, reporting (nil, false, nil) if key is absent.
func (d *DB) typedContainer(key []byte, typ object.Type) (interface{}, bool, error) {
	v, ok := d.keys.Find(string(key))
	if !ok {
		return nil, false, nil
	}
	o := v.(*object.Object)
	if o.Type() != typ {
		return nil, false, kverrors.New(kverrors.WrongType, "operation against a key holding the wrong kind of value")
	}
	return o.Container, true, nil
}

// deleteIfEmpty removes key once its container has been drained,
// matching a live dataset's usual "the last element's removal deletes
// the key" behaviour.
func (d *DB) deleteIfEmpty(key []byte, length int) {
	if length == 0 {
		d.Delete(key)
	}
}

// LPush/RPush push values onto a list, creating it if absent (spec
// §4.2's ListEngine push operations, routed through the command
// façade's type dispatch).
func (d *DB) LPush(key []byte, values ...[]byte) (int, error) {
	c, err := d.container(key, object.TypeList, object.EncQuicklist, func() interface{} { return listobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	l := c.(*listobj.List)
	l.PushHead(values...)
	d.SignalModified(key, "lpush")
	return l.Len(), nil
}

func (d *DB) RPush(key []byte, values ...[]byte) (int, error) {
	c, err := d.container(key, object.TypeList, object.EncQuicklist, func() interface{} { return listobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	l := c.(*listobj.List)
	l.PushTail(values...)
	d.SignalModified(key, "rpush")
	return l.Len(), nil
}

func (d *DB) LPop(key []byte) ([]byte, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeList)
	if err != nil || !ok {
		return nil, false, err
	}
	l := c.(*listobj.List)
	v, ok := l.PopHead()
	if !ok {
		return nil, false, nil
	}
	d.SignalModified(key, "lpop")
	d.deleteIfEmpty(key, l.Len())
	return v, true, nil
}

func (d *DB) RPop(key []byte) ([]byte, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeList)
	if err != nil || !ok {
		return nil, false, err
	}
	l := c.(*listobj.List)
	v, ok := l.PopTail()
	if !ok {
		return nil, false, nil
	}
	d.SignalModified(key, "rpop")
	d.deleteIfEmpty(key, l.Len())
	return v, true, nil
}

// LRange returns the list's elements in [start, stop], nil if key is
// absent.
func (d *DB) LRange(key []byte, start, stop int) ([][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeList)
	if err != nil || !ok {
		return nil, err
	}
	return c.(*listobj.List).Range(start, stop), nil
}

// LLen returns the list's length, 0 if key is absent.
func (d *DB) LLen(key []byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeList)
	if err != nil || !ok {
		return 0, err
	}
	return c.(*listobj.List).Len(), nil
}

// SAdd inserts members into a set, creating it if absent (spec §4.2's
// SetEngine Add, routed through the façade's type dispatch).
func (d *DB) SAdd(key []byte, members ...[]byte) (int, error) {
	c, err := d.container(key, object.TypeSet, object.EncIntset, func() interface{} { return setobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	s := c.(*setobj.Set)
	added := 0
	for _, m := range members {
		if s.Add(m) {
			added++
		}
	}
	if added > 0 {
		d.SignalModified(key, "sadd")
	}
	return added, nil
}

// SRem removes members from a set, deleting the key if it empties.
func (d *DB) SRem(key []byte, members ...[]byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return 0, err
	}
	s := c.(*setobj.Set)
	removed := 0
	for _, m := range members {
		if s.Remove(m) {
			removed++
		}
	}
	if removed > 0 {
		d.SignalModified(key, "srem")
		d.deleteIfEmpty(key, s.Len())
	}
	return removed, nil
}

func (d *DB) SIsMember(key, member []byte) (bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return false, err
	}
	return c.(*setobj.Set).Contains(member), nil
}

func (d *DB) SMembers(key []byte) ([][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return nil, err
	}
	return c.(*setobj.Set).Members(), nil
}

func (d *DB) SCard(key []byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return 0, err
	}
	return c.(*setobj.Set).Len(), nil
}

// SPop removes and returns up to n random members (spec §4.2's
// SetEngine Pop).
func (d *DB) SPop(key []byte, n int) ([][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return nil, err
	}
	s := c.(*setobj.Set)
	out, err := s.Pop(n, d.rnd)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		d.SignalModified(key, "spop")
		d.deleteIfEmpty(key, s.Len())
	}
	return out, nil
}

// SRandMember returns a random member without removing it.
func (d *DB) SRandMember(key []byte) ([]byte, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeSet)
	if err != nil || !ok {
		return nil, false, err
	}
	m, ok := c.(*setobj.Set).RandomMember(d.rnd)
	return m, ok, nil
}

// setOperands fetches keys as sets, treating an absent key as an
// empty set (spec §4.2's multi-set algebra operates over the keys
// given regardless of existence).
func (d *DB) setOperands(keys [][]byte) ([]*setobj.Set, error) {
	out := make([]*setobj.Set, 0, len(keys))
	for _, k := range keys {
		c, ok, err := d.typedContainer(k, object.TypeSet)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, setobj.New(d.params))
			continue
		}
		out = append(out, c.(*setobj.Set))
	}
	return out, nil
}

func (d *DB) SUnion(keys ...[]byte) ([][]byte, error) {
	sets, err := d.setOperands(keys)
	if err != nil {
		return nil, err
	}
	return setobj.Union(d.params, sets...).Members(), nil
}

func (d *DB) SInter(keys ...[]byte) ([][]byte, error) {
	sets, err := d.setOperands(keys)
	if err != nil {
		return nil, err
	}
	return setobj.Inter(d.params, sets...).Members(), nil
}

func (d *DB) SDiff(keys ...[]byte) ([][]byte, error) {
	sets, err := d.setOperands(keys)
	if err != nil {
		return nil, err
	}
	return setobj.Diff(d.params, sets...).Members(), nil
}

// HSet stores field=value in a hash, creating it if absent (spec
// §4.2's HashEngine Set).
func (d *DB) HSet(key, field, value []byte) (bool, error) {
	c, err := d.container(key, object.TypeHash, object.EncZiplist, func() interface{} { return hashobj.New(d.params) })
	if err != nil {
		return false, err
	}
	h := c.(*hashobj.Hash)
	created := h.Set(field, value, hashobj.CopyField)
	d.SignalModified(key, "hset")
	return created, nil
}

func (d *DB) HGet(key, field []byte) ([]byte, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return nil, false, err
	}
	v, ok := c.(*hashobj.Hash).Get(field)
	return v, ok, nil
}

func (d *DB) HDel(key []byte, fields ...[]byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return 0, err
	}
	h := c.(*hashobj.Hash)
	removed := 0
	for _, f := range fields {
		if h.Delete(f) {
			removed++
		}
	}
	if removed > 0 {
		d.SignalModified(key, "hdel")
		d.deleteIfEmpty(key, h.Len())
	}
	return removed, nil
}

func (d *DB) HExists(key, field []byte) (bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return false, err
	}
	return c.(*hashobj.Hash).Exists(field), nil
}

func (d *DB) HLen(key []byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return 0, err
	}
	return c.(*hashobj.Hash).Len(), nil
}

// HIncrBy adds delta to field's integer value, creating the hash and/
// or field as needed (spec §4.2's HashEngine IncrBy).
func (d *DB) HIncrBy(key, field []byte, delta int64) (int64, error) {
	c, err := d.container(key, object.TypeHash, object.EncZiplist, func() interface{} { return hashobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	next, err := c.(*hashobj.Hash).IncrBy(field, delta)
	if err != nil {
		return 0, err
	}
	d.SignalModified(key, "hincrby")
	return next, nil
}

func (d *DB) HIncrByFloat(key, field []byte, delta float64) (float64, error) {
	c, err := d.container(key, object.TypeHash, object.EncZiplist, func() interface{} { return hashobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	next, err := c.(*hashobj.Hash).IncrByFloat(field, delta)
	if err != nil {
		return 0, err
	}
	d.SignalModified(key, "hincrbyfloat")
	return next, nil
}

func (d *DB) HGetAll(key []byte) (map[string][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return nil, err
	}
	return c.(*hashobj.Hash).All(), nil
}

func (d *DB) HKeys(key []byte) ([][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeHash)
	if err != nil || !ok {
		return nil, err
	}
	return c.(*hashobj.Hash).Fields(), nil
}

// ZAdd sets member's score in a sorted set, creating it if absent
// (spec §4.2's SortedSetEngine Add).
func (d *DB) ZAdd(key, member []byte, score float64) (bool, error) {
	c, err := d.container(key, object.TypeSortedSet, object.EncZiplist, func() interface{} { return zsetobj.New(d.params) })
	if err != nil {
		return false, err
	}
	created := c.(*zsetobj.ZSet).Add(member, score)
	d.SignalModified(key, "zadd")
	return created, nil
}

func (d *DB) ZScore(key, member []byte) (float64, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return 0, false, err
	}
	s, ok := c.(*zsetobj.ZSet).Score(member)
	return s, ok, nil
}

func (d *DB) ZIncrBy(key, member []byte, delta float64) (float64, error) {
	c, err := d.container(key, object.TypeSortedSet, object.EncZiplist, func() interface{} { return zsetobj.New(d.params) })
	if err != nil {
		return 0, err
	}
	next := c.(*zsetobj.ZSet).IncrBy(member, delta)
	d.SignalModified(key, "zincrby")
	return next, nil
}

func (d *DB) ZRem(key []byte, members ...[]byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return 0, err
	}
	z := c.(*zsetobj.ZSet)
	removed := 0
	for _, m := range members {
		if z.Remove(m) {
			removed++
		}
	}
	if removed > 0 {
		d.SignalModified(key, "zrem")
		d.deleteIfEmpty(key, z.Len())
	}
	return removed, nil
}

func (d *DB) ZCard(key []byte) (int, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return 0, err
	}
	return c.(*zsetobj.ZSet).Len(), nil
}

func (d *DB) ZRank(key, member []byte) (int, bool, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return 0, false, err
	}
	r, ok := c.(*zsetobj.ZSet).Rank(member)
	return r, ok, nil
}

func (d *DB) ZRange(key []byte, start, stop int) ([][]byte, []float64, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return nil, nil, err
	}
	members, scores := c.(*zsetobj.ZSet).RangeByRank(start, stop)
	return members, scores, nil
}

func (d *DB) ZRangeByScore(key []byte, min, max float64, minExcl, maxExcl bool) ([][]byte, []float64, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return nil, nil, err
	}
	members, scores := c.(*zsetobj.ZSet).RangeByScore(min, max, minExcl, maxExcl)
	return members, scores, nil
}

func (d *DB) ZRangeByLex(key, min, max []byte) ([][]byte, error) {
	c, ok, err := d.typedContainer(key, object.TypeSortedSet)
	if err != nil || !ok {
		return nil, err
	}
	return c.(*zsetobj.ZSet).RangeByLex(min, max), nil
}
