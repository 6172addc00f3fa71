// Package setobj implements SetEngine (spec §3.2's set representation,
// §4.2): a dual-encoding set that starts as an IntArraySet and
// converts to a dict-backed hash table once it gains a non-integer
// member or grows past the configured thresholds.
//
// Bulk set algebra (Union/Diff/Inter) is accelerated with
// github.com/RoaringBitmap/roaring whenever every operand happens to
// be intset-encoded with values fitting uint32, the same sharded
// roaring.Bitmap approach this codebase already uses elsewhere for
// append-merge over block-number sets. Mixed or non-integer operands
// fall back to a dict-based comparison, matching the general case the
// bitmap path can't serve.
package setobj

import (
	"math/rand"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/dict"
	"github.com/ledgerwatch/kvengine/intset"
	"github.com/ledgerwatch/kvengine/kverrors"
)

// Encoding mirrors object.Encoding's set-specific values without
// importing the object package (avoiding a dependency cycle).
type Encoding int

const (
	EncIntset Encoding = iota
	EncHashtable
)

// Set is the dual-encoding engine.
type Set struct {
	enc    Encoding
	ints   *intset.Set
	fields *dict.Dict

	params config.Params
}

func bytesDesc() dict.TypeDescriptor { return dict.BytesKeyDescriptor() }

func New(params config.Params) *Set {
	return &Set{enc: EncIntset, ints: intset.New(), params: params}
}

func (s *Set) Encoding() Encoding { return s.enc }
func (s *Set) Len() int {
	if s.enc == EncIntset {
		return s.ints.Len()
	}
	return s.fields.Used()
}

func (s *Set) convertToHashtable() {
	if s.enc == EncHashtable {
		return
	}
	d := dict.New(bytesDesc(), s.ints.Len())
	for _, v := range s.ints.Values() {
		d.AddOrErr(intToBytesKey(v), struct{}{})
	}
	s.fields = d
	s.ints = nil
	s.enc = EncHashtable
}

func intToBytesKey(v int64) string {
	return formatInt(v)
}

func formatInt(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	var buf [20]byte
	i := len(buf)
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func parseIntKey(b []byte) (int64, bool) {
	s := string(b)
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	var v int64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

// Add inserts member, converting to hashtable encoding if member isn't
// integer-parseable or the set has outgrown MaxIntsetEntries (spec
// §4.2).
func (s *Set) Add(member []byte) bool {
	if s.enc == EncIntset {
		if v, ok := parseIntKey(member); ok {
			added := s.ints.Add(v)
			if s.ints.Len() > s.params.MaxIntsetEntries {
				s.convertToHashtable()
			}
			return added
		}
		s.convertToHashtable()
	}
	return s.fields.AddOrErr(string(member), struct{}{})
}

// Remove deletes member, returning true if it was present.
func (s *Set) Remove(member []byte) bool {
	if s.enc == EncIntset {
		v, ok := parseIntKey(member)
		if !ok {
			return false
		}
		return s.ints.Remove(v)
	}
	return s.fields.Delete(string(member))
}

// Contains reports membership.
func (s *Set) Contains(member []byte) bool {
	if s.enc == EncIntset {
		v, ok := parseIntKey(member)
		if !ok {
			return false
		}
		return s.ints.Contains(v)
	}
	_, ok := s.fields.Find(string(member))
	return ok
}

// Members returns every member's byte form.
func (s *Set) Members() [][]byte {
	if s.enc == EncIntset {
		vals := s.ints.Values()
		out := make([][]byte, len(vals))
		for i, v := range vals {
			out[i] = []byte(formatInt(v))
		}
		return out
	}
	var out [][]byte
	it := s.fields.NewSafeIterator()
	for {
		key, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, []byte(key.(string)))
	}
	it.Release()
	return out
}

// asRoaringBitmap returns a bitmap and true if s is intset-encoded and
// every value fits a uint32 (roaring's native domain); otherwise false.
func (s *Set) asRoaringBitmap() (*roaring.Bitmap, bool) {
	if s.enc != EncIntset {
		return nil, false
	}
	bm := roaring.New()
	for _, v := range s.ints.Values() {
		if v < 0 || v > 0xFFFFFFFF {
			return nil, false
		}
		bm.Add(uint32(v))
	}
	return bm, true
}

// allBitmaps returns a roaring bitmap per set and true only if every
// one of them is intset-encoded with values fitting uint32.
func allBitmaps(sets []*Set) ([]*roaring.Bitmap, bool) {
	out := make([]*roaring.Bitmap, len(sets))
	for i, s := range sets {
		bm, ok := s.asRoaringBitmap()
		if !ok {
			return nil, false
		}
		out[i] = bm
	}
	return out, true
}

func fromBitmap(params config.Params, bm *roaring.Bitmap) *Set {
	out := New(params)
	bm.Iterate(func(x uint32) bool {
		out.ints.Add(int64(x))
		return true
	})
	return out
}

// Union returns the set union of sets (spec §4.2's multi-set algebra).
func Union(params config.Params, sets ...*Set) *Set {
	if bitmaps, ok := allBitmaps(sets); ok && len(bitmaps) > 0 {
		merged := bitmaps[0]
		for _, bm := range bitmaps[1:] {
			merged = roaring.Or(merged, bm)
		}
		return fromBitmap(params, merged)
	}
	out := New(params)
	for _, s := range sets {
		for _, m := range s.Members() {
			out.Add(m)
		}
	}
	return out
}

// Inter returns the intersection of sets, iterating the smallest set's
// members first and checking containment against the rest in
// ascending size order, so a miss against a small set short-circuits
// before touching larger ones (spec §4.2's multi-set intersect).
func Inter(params config.Params, sets ...*Set) *Set {
	if len(sets) == 0 {
		return New(params)
	}
	if bitmaps, ok := allBitmaps(sets); ok {
		merged := bitmaps[0]
		for _, bm := range bitmaps[1:] {
			merged = roaring.And(merged, bm)
		}
		return fromBitmap(params, merged)
	}
	ordered := append([]*Set(nil), sets...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Len() < ordered[j].Len() })
	out := New(params)
	for _, m := range ordered[0].Members() {
		inAll := true
		for _, s := range ordered[1:] {
			if !s.Contains(m) {
				inAll = false
				break
			}
		}
		if inAll {
			out.Add(m)
		}
	}
	return out
}

// Diff returns members of sets[0] absent from every other operand,
// picking between the two costed algorithms spec §4.2 describes: scan
// sets[0] checking each member against the others (cost len(first) *
// numOthers), or seed the result with all of sets[0] and subtract every
// other set's members from it (cost sum of every operand's size),
// whichever is cheaper for the given operand sizes.
func Diff(params config.Params, sets ...*Set) *Set {
	if len(sets) == 0 {
		return New(params)
	}
	first, others := sets[0], sets[1:]
	if len(others) == 0 {
		out := New(params)
		for _, m := range first.Members() {
			out.Add(m)
		}
		return out
	}
	if bitmaps, ok := allBitmaps(sets); ok {
		merged := bitmaps[0]
		for _, bm := range bitmaps[1:] {
			merged = roaring.AndNot(merged, bm)
		}
		return fromBitmap(params, merged)
	}

	scanCost := first.Len() * len(others)
	subtractCost := first.Len()
	for _, o := range others {
		subtractCost += o.Len()
	}

	out := New(params)
	if scanCost <= subtractCost {
		for _, m := range first.Members() {
			found := false
			for _, o := range others {
				if o.Contains(m) {
					found = true
					break
				}
			}
			if !found {
				out.Add(m)
			}
		}
		return out
	}
	for _, m := range first.Members() {
		out.Add(m)
	}
	for _, o := range others {
		for _, m := range o.Members() {
			out.Remove(m)
		}
	}
	return out
}

// RandomMember returns a uniformly random member without removing it
// (spec §4.2's random_member, the collaborator Pop is built on).
func (s *Set) RandomMember(rnd *rand.Rand) ([]byte, bool) {
	if s.enc == EncIntset {
		if s.ints.Len() == 0 {
			return nil, false
		}
		v, _ := s.ints.Random(rnd.Intn(s.ints.Len()))
		return []byte(formatInt(v)), true
	}
	k, _, ok := s.fields.RandomEntry(rnd)
	if !ok {
		return nil, false
	}
	return []byte(k.(string)), true
}

func (s *Set) reset() {
	s.enc = EncIntset
	s.ints = intset.New()
	s.fields = nil
}

// popRemainingFactor is the same threshold redis's SPOP uses to switch
// strategies: once more than this fraction of the set would be popped,
// it's cheaper to keep a random surviving subset than to repeatedly
// draw-and-delete (spec §4.2: "for small n, repeatedly random_member
// and delete; else build a new set from the remaining random members").
const popRemainingFactor = 2

// Pop removes and returns up to n random members (spec §4.2); order is
// unspecified.
func (s *Set) Pop(n int, rnd *rand.Rand) ([][]byte, error) {
	if n < 0 {
		return nil, kverrors.New(kverrors.OutOfRange, "count must be non-negative")
	}
	total := s.Len()
	if n > total {
		n = total
	}
	if n == 0 {
		return nil, nil
	}
	if n*popRemainingFactor > total {
		all := s.Members()
		rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		popped := all[:n]
		remaining := all[n:]
		s.reset()
		for _, m := range remaining {
			s.Add(m)
		}
		return popped, nil
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		m, ok := s.RandomMember(rnd)
		if !ok {
			break
		}
		s.Remove(m)
		out = append(out, m)
	}
	return out, nil
}
