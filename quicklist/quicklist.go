// Package quicklist implements QuickList (spec §3.3, §4.3): a doubly
// linked list of PackedEntrySeq nodes with per-node LZF(-equivalent)
// compression and bounded node size.
package quicklist

import (
	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/internal/log"
	"github.com/ledgerwatch/kvengine/lzfutil"
	"github.com/ledgerwatch/kvengine/ziplist"
)

// Direction selects which way an iterator walks.
type Direction int

const (
	Head Direction = iota
	Tail
)

type node struct {
	prev, next *node

	seq *ziplist.Seq // nil while compressed

	compressedBlob []byte
	compressedOrig int // original uncompressed byte length

	count      int
	compressed bool
	recompress bool // set while transiently decompressed "for use" (§4.3.4)
}

func newNode() *node {
	return &node{seq: ziplist.New()}
}

func (n *node) byteLen() int {
	if n.compressed {
		return n.compressedOrig
	}
	return n.seq.ByteLen()
}

// decompressForUse returns n's raw seq, decompressing it if necessary
// and marking it for later recompression (spec §4.3.4's "decompress for
// use" pattern, modeled as the node retaining a flag rather than a
// lexical scope since callers may perform several operations before
// recompressing).
func (n *node) decompressForUse() *ziplist.Seq {
	if !n.compressed {
		return n.seq
	}
	raw, ok := lzfutil.Decompress(n.compressedBlob, n.compressedOrig)
	if !ok {
		log.Crit("quicklist: corrupted compressed node")
	}
	seq := ziplist.New()
	for _, e := range decodeEntries(raw) {
		seq.PushTail(e)
	}
	n.seq = seq
	n.compressed = false
	n.compressedBlob = nil
	n.recompress = true
	return n.seq
}

// encodeEntries/decodeEntries provide a trivial framed byte encoding so
// a decompressed node's entries can be recovered independent of the
// in-memory Seq representation; the wire format is a length-prefixed
// list of entry byte-strings.
func encodeEntries(s *ziplist.Seq) []byte {
	all := s.All()
	var out []byte
	for _, e := range all {
		out = append(out, encodeVarBytes(e)...)
	}
	return out
}

func encodeVarBytes(b []byte) []byte {
	n := len(b)
	hdr := []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	return append(hdr, b...)
}

func decodeEntries(raw []byte) [][]byte {
	var out [][]byte
	for len(raw) >= 4 {
		n := int(raw[0]) | int(raw[1])<<8 | int(raw[2])<<16 | int(raw[3])<<24
		raw = raw[4:]
		if n > len(raw) {
			break
		}
		out = append(out, raw[:n])
		raw = raw[n:]
	}
	return out
}

// compressNode compresses n's current raw seq in place, if it meets
// the minimum-size/minimum-gain bar (spec §4.3.4); otherwise leaves it
// raw.
func compressNode(n *node) {
	if n.compressed {
		return
	}
	raw := encodeEntries(n.seq)
	blob, ok := lzfutil.Compress(raw)
	if !ok {
		n.recompress = false
		return
	}
	n.compressedBlob = blob
	n.compressedOrig = len(raw)
	n.seq = nil
	n.compressed = true
	n.recompress = false
}

// List is the doubly linked list of nodes (spec §3.3).
type List struct {
	head, tail *node
	len        int // number of nodes
	count      int // total entry count

	fill          int
	compressDepth int
	nodeSafety    int // absolute byte cap (8 KiB)
}

func New(p config.Params) *List {
	return &List{
		fill:          p.ListFill,
		compressDepth: p.ListCompressDepth,
		nodeSafety:    int(p.ListNodeSafety),
	}
}

func (l *List) Len() int   { return l.count }
func (l *List) Nodes() int { return l.len }

// fits decides whether an element of size addLen bytes may be pushed
// into n's tail (spec §4.3.1).
func (l *List) fits(n *node, addLen int) bool {
	seq := n.seq
	add := ziplist.EstimateEntrySize(seq.LastEncodedLen(), make([]byte, addLen))
	post := seq.ByteLen() + add
	if budget, ok := config.FillByteBudget(l.fill); ok {
		return post <= int(budget) && post <= l.nodeSafety
	}
	return post <= l.nodeSafety && n.count < l.fill
}

func sizeFits(n *node, value []byte, l *List) bool {
	return l.fits(n, len(value))
}

func (l *List) insertNodeAfter(ref, n *node) {
	n.prev = ref
	if ref == nil {
		n.next = l.head
		if l.head != nil {
			l.head.prev = n
		}
		l.head = n
		if l.tail == nil {
			l.tail = n
		}
	} else {
		n.next = ref.next
		if ref.next != nil {
			ref.next.prev = n
		} else {
			l.tail = n
		}
		ref.next = n
	}
	l.len++
}

func (l *List) removeNode(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.len--
}

// PushHead / PushTail add value at either end (spec §4.3).
func (l *List) PushHead(value []byte) {
	if l.head != nil && sizeFits(l.head, value, l) {
		l.head.decompressForUse()
		l.head.seq.PushHead(value)
		l.head.count++
	} else {
		n := newNode()
		n.seq.PushHead(value)
		n.count = 1
		l.insertNodeAfter(nil, n)
	}
	l.count++
	l.recompressAfterChange()
}

func (l *List) PushTail(value []byte) {
	if l.tail != nil && sizeFits(l.tail, value, l) {
		l.tail.decompressForUse()
		l.tail.seq.PushTail(value)
		l.tail.count++
	} else {
		n := newNode()
		n.seq.PushTail(value)
		n.count = 1
		l.insertNodeAfter(l.tail, n)
	}
	l.count++
	l.recompressAfterChange()
}

// PopHead / PopTail remove and return the entry at either end.
func (l *List) PopHead() ([]byte, bool) {
	if l.head == nil {
		return nil, false
	}
	n := l.head
	n.decompressForUse()
	c, _ := n.seq.Index(0)
	e, _ := n.seq.Get(c)
	n.seq.DeleteAt(c)
	n.count--
	l.count--
	if n.count == 0 {
		l.removeNode(n)
	}
	l.recompressAfterChange()
	return e.Bytes(), true
}

func (l *List) PopTail() ([]byte, bool) {
	if l.tail == nil {
		return nil, false
	}
	n := l.tail
	n.decompressForUse()
	c, _ := n.seq.Index(-1)
	e, _ := n.seq.Get(c)
	n.seq.DeleteAt(c)
	n.count--
	l.count--
	if n.count == 0 {
		l.removeNode(n)
	}
	l.recompressAfterChange()
	return e.Bytes(), true
}

// Entry addresses one element: a node plus a cursor within it.
type Entry struct {
	n   *node
	cur ziplist.Cursor
}

// Index returns the entry handle for the i'th element (negative counts
// from the tail), and its bytes.
func (l *List) Index(i int) (Entry, []byte, bool) {
	n := i
	if n < 0 {
		n = l.count + n
	}
	if n < 0 || n >= l.count {
		return Entry{}, nil, false
	}
	cur := l.head
	for n >= cur.count {
		n -= cur.count
		cur = cur.next
	}
	cur.decompressForUse()
	c, _ := cur.seq.Index(n)
	e, _ := cur.seq.Get(c)
	return Entry{n: cur, cur: c}, e.Bytes(), true
}

// ReplaceAt overwrites the value at index i.
func (l *List) ReplaceAt(i int, value []byte) bool {
	ent, _, ok := l.Index(i)
	if !ok {
		return false
	}
	ent.n.seq.DeleteAt(ent.cur)
	ent.n.seq.InsertAt(ent.cur, value)
	l.recompressAfterChange()
	return true
}

// insertGeneral implements the six-case insertion algorithm of spec
// §4.3.2 relative to entry e, inserting before or after it.
func (l *List) insertGeneral(e Entry, value []byte, after bool) {
	n := e.n
	n.decompressForUse()

	// case 1: room in current node.
	if l.fits(n, len(value)) {
		insertCur := e.cur
		if after {
			if next, ok := n.seq.Next(e.cur); ok {
				insertCur = next
			} else {
				insertCur = ziplist.End
			}
		}
		n.seq.InsertAt(insertCur, value)
		n.count++
		l.count++
		l.mergeAround(n)
		l.recompressAfterChange()
		return
	}

	atTail := int(e.cur) == n.count-1
	atHead := int(e.cur) == 0

	// case 2: at tail, next node has room.
	if atTail && after && n.next != nil && l.fits(n.next, len(value)) {
		n.next.decompressForUse()
		n.next.seq.PushHead(value)
		n.next.count++
		l.count++
		l.recompressAfterChange()
		return
	}
	// case 3: at head, prev node has room.
	if atHead && !after && n.prev != nil && l.fits(n.prev, len(value)) {
		n.prev.decompressForUse()
		n.prev.seq.PushTail(value)
		n.prev.count++
		l.count++
		l.recompressAfterChange()
		return
	}
	// case 4: at either end, no neighbour has room -> new node.
	if (atHead && !after) || (atTail && after) {
		nn := newNode()
		nn.seq.PushHead(value)
		nn.count = 1
		if after {
			l.insertNodeAfter(n, nn)
		} else {
			l.insertNodeAfter(n.prev, nn)
		}
		l.count++
		l.recompressAfterChange()
		return
	}

	// case 5: interior of a full node -> split.
	l.splitAndInsert(e, value, after)
	l.recompressAfterChange()
}

func (l *List) splitAndInsert(e Entry, value []byte, after bool) {
	n := e.n
	offset := int(e.cur)
	left := n.seq.Clone()
	right := n.seq.Clone()
	left.DeleteRange(offset, n.count-offset)
	right.DeleteRange(0, offset)

	leftNode := newNode()
	leftNode.seq = left
	leftNode.count = left.Len()
	rightNode := newNode()
	rightNode.seq = right
	rightNode.count = right.Len()

	prev, next := n.prev, n.next
	l.removeNode(n)
	l.insertNodeAfter(prev, leftNode)
	l.insertNodeAfter(leftNode, rightNode)
	_ = next

	if after {
		rightNode.seq.PushHead(value)
	} else {
		leftNode.seq.PushTail(value)
	}
	rightNode.count = rightNode.seq.Len()
	leftNode.count = leftNode.seq.Len()
	l.count++

	l.mergeAround(leftNode)
	l.mergeAround(rightNode)
}

// InsertBefore / InsertAfter insert value relative to an existing
// entry handle (spec §4.3).
func (l *List) InsertBefore(e Entry, value []byte) { l.insertGeneral(e, value, false) }
func (l *List) InsertAfter(e Entry, value []byte)  { l.insertGeneral(e, value, true) }

// mergeAround tries, in order, the four neighbour-pair merges from
// spec §4.3.3, stopping at the first that fits.
func (l *List) mergeAround(center *node) {
	try := func(a, b *node) bool {
		if a == nil || b == nil {
			return false
		}
		combined := ziplist.Merge(a.seq.Clone(), b.seq.Clone())
		post := combined.ByteLen()
		budget, hasBudget := config.FillByteBudget(l.fill)
		fitsSize := post <= l.nodeSafety
		if hasBudget {
			fitsSize = fitsSize && post <= int(budget)
		} else {
			fitsSize = fitsSize && (a.count+b.count) < l.fill
		}
		if !fitsSize {
			return false
		}
		a.decompressForUse()
		b.decompressForUse()
		ziplist.Merge(a.seq, b.seq)
		a.count += b.count
		l.removeNode(b)
		return true
	}

	prev := center.prev
	next := center.next
	if prev != nil && try(prev.prev, prev) {
		return
	}
	if next != nil && try(next, next.next) {
		return
	}
	if try(prev, center) {
		return
	}
	try(center, next)
}

// DeleteRange removes count entries starting at start (negative start
// counts from the tail), node by node, dropping emptied nodes (spec
// §4.3.5).
func (l *List) DeleteRange(start, count int) int {
	if count <= 0 {
		return 0
	}
	if start < 0 {
		start = l.count + start
	}
	if start < 0 {
		start = 0
	}
	if start >= l.count {
		return 0
	}
	removed := 0
	cur := l.head
	offset := start
	for offset >= cur.count {
		offset -= cur.count
		cur = cur.next
	}
	remaining := count
	for cur != nil && remaining > 0 {
		toDelete := cur.count - offset
		if toDelete > remaining {
			toDelete = remaining
		}
		next := cur.next
		if toDelete == cur.count {
			l.removeNode(cur)
		} else {
			cur.decompressForUse()
			cur.seq.DeleteRange(offset, toDelete)
			cur.count -= toDelete
		}
		removed += toDelete
		remaining -= toDelete
		l.count -= toDelete
		offset = 0
		cur = next
	}
	l.recompressAfterChange()
	return removed
}

// RotateTailToHead moves the tail entry to the head (spec §4.3.6).
func (l *List) RotateTailToHead() bool {
	v, ok := l.PopTail()
	if !ok {
		return false
	}
	l.PushHead(v)
	return true
}

// CompareAt reports whether the value at index i equals b.
func (l *List) CompareAt(i int, b []byte) bool {
	_, v, ok := l.Index(i)
	if !ok {
		return false
	}
	return string(v) == string(b)
}

// Iterator walks entries head-to-tail or tail-to-head.
type Iterator struct {
	l     *List
	n     *node
	cur   ziplist.Cursor
	dir   Direction
	first bool
}

func (l *List) NewIterator(dir Direction) *Iterator {
	var n *node
	if dir == Head {
		n = l.head
	} else {
		n = l.tail
	}
	it := &Iterator{l: l, n: n, dir: dir, first: true}
	if dir == Tail && n != nil {
		it.cur = ziplist.Cursor(n.count - 1)
	}
	return it
}

func (l *List) NewIteratorAt(i int, dir Direction) *Iterator {
	e, _, ok := l.Index(i)
	if !ok {
		return &Iterator{l: l, dir: dir}
	}
	return &Iterator{l: l, n: e.n, cur: e.cur, dir: dir, first: true}
}

// Next advances the iterator, returning the next entry's bytes.
func (it *Iterator) Next() ([]byte, Entry, bool) {
	if it.n == nil {
		return nil, Entry{}, false
	}
	it.n.decompressForUse()
	if it.first {
		it.first = false
		e, ok := it.n.seq.Get(it.cur)
		if !ok {
			return nil, Entry{}, false
		}
		return e.Bytes(), Entry{n: it.n, cur: it.cur}, true
	}
	var next ziplist.Cursor
	var ok bool
	if it.dir == Head {
		next, ok = it.n.seq.Next(it.cur)
	} else {
		next, ok = it.n.seq.Prev(it.cur)
	}
	if !ok {
		compressBoundaryLeave(it.l, it.n)
		if it.dir == Head {
			it.n = it.n.next
		} else {
			it.n = it.n.prev
		}
		if it.n == nil {
			return nil, Entry{}, false
		}
		it.n.decompressForUse()
		if it.dir == Head {
			next, ok = it.n.seq.Index(0)
		} else {
			next, ok = it.n.seq.Index(-1)
		}
		if !ok {
			return nil, Entry{}, false
		}
	}
	it.cur = next
	e, _ := it.n.seq.Get(it.cur)
	return e.Bytes(), Entry{n: it.n, cur: it.cur}, true
}

// Delete removes the entry at e (the entry most recently returned by
// Next on this iterator) and advances the iterator to the next valid
// position, per spec §4.3.7's carve-out for mutation during iteration.
func (it *Iterator) Delete(e Entry) {
	n := e.n
	n.seq.DeleteAt(e.cur)
	n.count--
	it.l.count--
	if n.count == 0 {
		wasHead := n == it.l.head
		it.l.removeNode(n)
		if it.dir == Head {
			it.n = boolNode(wasHead, it.l.head, n.next)
			it.cur = 0
		} else {
			it.n = n.prev
			if it.n != nil {
				it.cur = ziplist.Cursor(it.n.count - 1)
			}
		}
		it.first = true
		return
	}
	if it.dir == Head {
		// the following entry has shifted into e.cur; step back one so
		// the next call to Next lands on it.
		it.cur = e.cur - 1
	}
}

func boolNode(cond bool, a, b *node) *node {
	if cond {
		return a
	}
	return b
}

// compressBoundaryLeave compresses the node just left by an iterator
// that's running off it, honouring compress_depth (spec §4.3.7).
func compressBoundaryLeave(l *List, n *node) {
	recompressIfNeeded(l, n)
}

// recompressAfterChange scans from both ends up to compress_depth,
// ensures the boundary nodes are raw, and compresses the node just
// beyond (spec §4.3.4).
func (l *List) recompressAfterChange() {
	if l.compressDepth <= 0 {
		return
	}
	i := 0
	for n := l.head; n != nil && i < l.compressDepth; n, i = n.next, i+1 {
		n.decompressForUse()
		n.recompress = false
	}
	if n := nthFromHead(l, l.compressDepth); n != nil {
		compressNode(n)
	}
	i = 0
	for n := l.tail; n != nil && i < l.compressDepth; n, i = n.prev, i+1 {
		n.decompressForUse()
		n.recompress = false
	}
	if n := nthFromTail(l, l.compressDepth); n != nil {
		compressNode(n)
	}
}

func recompressIfNeeded(l *List, n *node) {
	if n == nil || !n.recompress {
		return
	}
	if withinBoundary(l, n) {
		n.recompress = false
		return
	}
	compressNode(n)
}

// withinBoundary reports whether n sits among the compressDepth nodes
// kept raw at either end, collecting each side onto a nodeStack before
// scanning it (spec §4.3.4's compress-boundary walk).
func withinBoundary(l *List, n *node) bool {
	head := newNodeStack()
	for c, i := l.head, 0; c != nil && i < l.compressDepth; c, i = c.next, i+1 {
		head.push(c)
	}
	for _, c := range head.Data() {
		if c == n {
			return true
		}
	}
	tail := newNodeStack()
	for c, i := l.tail, 0; c != nil && i < l.compressDepth; c, i = c.prev, i+1 {
		tail.push(c)
	}
	for _, c := range tail.Data() {
		if c == n {
			return true
		}
	}
	return false
}

// nthFromHead returns the node k steps from the head (0-based), by
// pushing the walk onto a nodeStack and popping its top.
func nthFromHead(l *List, k int) *node {
	s := newNodeStack()
	n := l.head
	for i := 0; i <= k && n != nil; i, n = i+1, n.next {
		s.push(n)
	}
	if s.Len() <= k {
		return nil
	}
	top, _ := s.pop()
	return top
}

func nthFromTail(l *List, k int) *node {
	s := newNodeStack()
	n := l.tail
	for i := 0; i <= k && n != nil; i, n = i+1, n.prev {
		s.push(n)
	}
	if s.Len() <= k {
		return nil
	}
	top, _ := s.peek()
	return top
}

// NodeCompressed reports whether the node at list index position pos
// (0-based, head to tail) is currently compressed; used by tests
// checking invariant 3 (spec §8).
func (l *List) NodeCompressed(pos int) (compressed bool, ok bool) {
	n := l.head
	for i := 0; i < pos && n != nil; i++ {
		n = n.next
	}
	if n == nil {
		return false, false
	}
	return n.compressed, true
}
