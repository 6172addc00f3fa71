// Package intset implements IntArraySet (spec §3.4, §4.4): a sorted,
// deduplicated array of integers that promotes its encoding width as
// larger values are added.
package intset

import (
	"encoding/binary"
	"sort"

	"github.com/ledgerwatch/kvengine/internal/log"
	"github.com/ledgerwatch/kvengine/kverrors"
)

// headerLen is the encoded header size: a 4-byte width tag plus a
// 4-byte element count, matching the width+length header a packed
// int-array encoding carries ahead of its elements (spec §4.4).
const headerLen = 8

// Width is the per-element encoding width.
type Width int

const (
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

func widthFor(v int64) Width {
	switch {
	case v >= -32768 && v <= 32767:
		return Width16
	case v >= -2147483648 && v <= 2147483647:
		return Width32
	default:
		return Width64
	}
}

func (w Width) String() string {
	switch w {
	case Width16:
		return "int16"
	case Width32:
		return "int32"
	case Width64:
		return "int64"
	default:
		return "unknown"
	}
}

// Set is a sorted, unique int64 array whose encoding width only ever
// grows (spec §4.4: "the width only ever grows; it is never demoted,
// even if the large values are later removed").
type Set struct {
	width  Width
	values []int64
}

func New() *Set {
	return &Set{width: Width16}
}

func (s *Set) Len() int      { return len(s.values) }
func (s *Set) Width() Width  { return s.width }
func (s *Set) Values() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}

func (s *Set) search(v int64) (int, bool) {
	i := sort.Search(len(s.values), func(i int) bool { return s.values[i] >= v })
	if i < len(s.values) && s.values[i] == v {
		return i, true
	}
	return i, false
}

// Contains reports whether v is a member.
func (s *Set) Contains(v int64) bool {
	_, ok := s.search(v)
	return ok
}

// Add inserts v, growing the encoding width if necessary. Returns true
// if v was newly added.
func (s *Set) Add(v int64) bool {
	if w := widthFor(v); w > s.width {
		s.width = w
	}
	i, ok := s.search(v)
	if ok {
		return false
	}
	s.values = append(s.values, 0)
	copy(s.values[i+1:], s.values[i:])
	s.values[i] = v
	return true
}

// Remove deletes v if present; the encoding width is never demoted
// (spec §4.4).
func (s *Set) Remove(v int64) bool {
	i, ok := s.search(v)
	if !ok {
		return false
	}
	s.values = append(s.values[:i], s.values[i+1:]...)
	return true
}

// Min/Max return the smallest/largest member.
func (s *Set) Min() (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[0], true
}

func (s *Set) Max() (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

// Random returns the element at index i, where i is drawn uniformly by
// the caller over [0, Len()) (spec §4.4's O(1) biased-free random
// member); indexing by position on a sorted array is itself uniform
// since membership order carries no bias.
func (s *Set) Random(i int) (int64, bool) {
	if i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// At returns the element at position i (0-based, ascending order).
func (s *Set) At(i int) (int64, bool) {
	if i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// ByteLen is the encoded size of the set: an 8-byte header plus
// length*width element bytes (spec §4.4 testable property #4).
func (s *Set) ByteLen() int {
	return headerLen + len(s.values)*int(s.width)
}

// Serialize renders the set as width header + length header +
// little-endian elements at the set's current width, satisfying the
// serialize/reload round-trip law in spec §8.
func (s *Set) Serialize() []byte {
	buf := make([]byte, s.ByteLen())
	binary.LittleEndian.PutUint32(buf[0:4], uint32(s.width))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(s.values)))
	off := headerLen
	for _, v := range s.values {
		switch s.width {
		case Width16:
			binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		case Width32:
			binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		case Width64:
			binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		}
		off += int(s.width)
	}
	return buf
}

// Deserialize reloads a set from Serialize's output, returning
// kverrors.CorruptedEncoding if the header or body doesn't fit.
func Deserialize(buf []byte) (*Set, error) {
	if len(buf) < headerLen {
		return nil, kverrors.New(kverrors.CorruptedEncoding, "intset: truncated header")
	}
	width := Width(binary.LittleEndian.Uint32(buf[0:4]))
	if width != Width16 && width != Width32 && width != Width64 {
		return nil, kverrors.New(kverrors.CorruptedEncoding, "intset: invalid width %d", width)
	}
	n := int(binary.LittleEndian.Uint32(buf[4:8]))
	need := headerLen + n*int(width)
	if n < 0 || len(buf) < need {
		return nil, kverrors.New(kverrors.CorruptedEncoding, "intset: truncated body")
	}
	s := &Set{width: width, values: make([]int64, n)}
	off := headerLen
	for i := 0; i < n; i++ {
		switch width {
		case Width16:
			s.values[i] = int64(int16(binary.LittleEndian.Uint16(buf[off:])))
		case Width32:
			s.values[i] = int64(int32(binary.LittleEndian.Uint32(buf[off:])))
		case Width64:
			s.values[i] = int64(binary.LittleEndian.Uint64(buf[off:]))
		}
		off += int(width)
	}
	return s, nil
}

// assertSorted is a development-time invariant check that ends the
// process via log.Crit if the ordering invariant is broken; no
// operation of Set calls it.
func (s *Set) assertSorted() {
	for i := 1; i < len(s.values); i++ {
		if s.values[i-1] >= s.values[i] {
			log.Crit("intset: ordering invariant violated")
		}
	}
}
