// Package ziplist implements the PackedEntrySeq collaborator described
// in spec §6: an entry sequence supporting O(1) push/pop at either end
// and O(n) interior insert/delete, where integer-parseable short byte
// strings are auto-encoded as integers. Ziplist internals themselves
// are out of scope (§1); what's load-bearing for the core modules
// under test is the operation contract and the byte-length accounting
// used by quicklist's node-fit policy (§4.3.1), not a literal packed
// buffer. This implementation keeps entries as a slice and computes
// ByteLen using the same per-entry overhead accounting (1/5-byte
// prevlen, 1/2/5-byte length or integer encoding) a real ziplist would
// use, so every size-driven decision in quicklist/hashobj/zsetobj
// behaves the same way a literal packed buffer would.
package ziplist

import (
	"strconv"
)

// Entry is one element of a sequence: either a short byte string or a
// small integer (spec §6: "integer-parseable short bytes are
// auto-encoded as integers; clients must not assume Get returns the
// original representation kind").
type Entry struct {
	isInt bool
	i     int64
	s     []byte
}

func entryFromBytes(b []byte) Entry {
	if n, ok := parseInt(b); ok {
		return Entry{isInt: true, i: n}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return Entry{s: cp}
}

func parseInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	// reject non-canonical forms ("+1", "01", "-0") so re-encoding is stable.
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

// Bytes renders the entry's on-the-wire byte form.
func (e Entry) Bytes() []byte {
	if e.isInt {
		return []byte(strconv.FormatInt(e.i, 10))
	}
	return e.s
}

// Int returns the integer value and true if the entry is integer-encoded.
func (e Entry) Int() (int64, bool) {
	return e.i, e.isInt
}

func (e Entry) encodedLen() int {
	if e.isInt {
		switch {
		case e.i >= -128 && e.i <= 127:
			return 1
		case e.i >= -32768 && e.i <= 32767:
			return 2
		case e.i >= -2147483648 && e.i <= 2147483647:
			return 4
		default:
			return 8
		}
	}
	n := len(e.s)
	switch {
	case n < 64:
		return 1 + n
	case n < 16384:
		return 2 + n
	default:
		return 5 + n
	}
}

func prevLenOverhead(n int) int {
	if n < 254 {
		return 1
	}
	return 5
}

// Seq is a sequence of Entry values plus cached byte-length accounting.
type Seq struct {
	entries []Entry
}

func New() *Seq { return &Seq{} }

func (s *Seq) Len() int { return len(s.entries) }

// ByteLen is the accounted encoded size of the whole sequence,
// including the header (10 bytes: 4 total-bytes + 4 tail-offset + 2
// entry-count) and an end-of-sequence marker byte, matching the
// overhead a real ziplist charges against the node-fit budget.
func (s *Seq) ByteLen() int {
	total := 10 + 1
	prev := 0
	for _, e := range s.entries {
		total += prevLenOverhead(prev)
		el := e.encodedLen()
		total += el
		prev = el
	}
	return total
}

// Cursor addresses one entry by index. Cursors are invalidated by any
// mutation (spec §6); callers must re-derive them afterward.
type Cursor int

const End Cursor = -1

func (s *Seq) at(c Cursor) (int, bool) {
	i := int(c)
	if i < 0 || i >= len(s.entries) {
		return 0, false
	}
	return i, true
}

// PushHead / PushTail add an entry at either end.
func (s *Seq) PushHead(b []byte) { s.entries = append([]Entry{entryFromBytes(b)}, s.entries...) }
func (s *Seq) PushTail(b []byte) { s.entries = append(s.entries, entryFromBytes(b)) }

// InsertAt inserts before the entry addressed by c; c == End appends at the tail.
func (s *Seq) InsertAt(c Cursor, b []byte) {
	e := entryFromBytes(b)
	if c == End {
		s.entries = append(s.entries, e)
		return
	}
	i, ok := s.at(c)
	if !ok {
		s.entries = append(s.entries, e)
		return
	}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// DeleteAt removes the entry addressed by c.
func (s *Seq) DeleteAt(c Cursor) {
	i, ok := s.at(c)
	if !ok {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

// DeleteRange removes count entries starting at start (negative start
// counts from the tail, as in quicklist.DeleteRange).
func (s *Seq) DeleteRange(start, count int) int {
	n := len(s.entries)
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if start >= n || count <= 0 {
		return 0
	}
	end := start + count
	if end > n {
		end = n
	}
	removed := end - start
	s.entries = append(s.entries[:start], s.entries[end:]...)
	return removed
}

// Index returns the cursor for the i'th entry (negative counts from tail).
func (s *Seq) Index(i int) (Cursor, bool) {
	n := len(s.entries)
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return Cursor(i), true
}

func (s *Seq) Next(c Cursor) (Cursor, bool) {
	i := int(c) + 1
	if i >= len(s.entries) {
		return 0, false
	}
	return Cursor(i), true
}

func (s *Seq) Prev(c Cursor) (Cursor, bool) {
	i := int(c) - 1
	if i < 0 {
		return 0, false
	}
	return Cursor(i), true
}

// Get returns the entry at c.
func (s *Seq) Get(c Cursor) (Entry, bool) {
	i, ok := s.at(c)
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Compare reports whether the entry at c equals b (comparing by
// decoded value, so an integer entry compares equal to its decimal
// byte form, matching the auto-encode contract).
func (s *Seq) Compare(c Cursor, b []byte) bool {
	e, ok := s.Get(c)
	if !ok {
		return false
	}
	return string(e.Bytes()) == string(b)
}

// All returns every entry's byte form, head to tail. Used by callers
// that need a snapshot rather than cursor-by-cursor iteration.
func (s *Seq) All() [][]byte {
	out := make([][]byte, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Bytes()
	}
	return out
}

// LastEncodedLen returns the encoded size of the tail entry, or 0 for
// an empty sequence; used by callers estimating the prevlen overhead a
// new tail push would incur.
func (s *Seq) LastEncodedLen() int {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].encodedLen()
}

// EstimateEntrySize estimates the marginal bytes a tail push of b would
// add to a sequence whose current tail entry has encoded length
// lastLen (spec §4.3.1's "1 or 5 bytes previous-offset + 1/2/5 bytes
// length encoding" accounting).
func EstimateEntrySize(lastLen int, b []byte) int {
	return prevLenOverhead(lastLen) + entryFromBytes(b).encodedLen()
}

// Clone returns an independent copy, used when splitting a quicklist
// node (spec §4.3.2 case 5: "each built by copying the original seq").
func (s *Seq) Clone() *Seq {
	cp := make([]Entry, len(s.entries))
	copy(cp, s.entries)
	return &Seq{entries: cp}
}

// Merge appends b's entries onto a and returns a, matching the
// single-merge-primitive semantics described in spec §9 ("the source
// handles this via a single merge primitive that returns the
// surviving node"); callers are responsible for discarding b.
func Merge(a, b *Seq) *Seq {
	a.entries = append(a.entries, b.entries...)
	return a
}
