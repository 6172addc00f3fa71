// Package listobj implements ListEngine (spec §3.2/§4.2's list
// representation): list-semantic operations (push/pop/index/range/
// trim/insert/remove) over a quicklist.List.
package listobj

import (
	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/kverrors"
	"github.com/ledgerwatch/kvengine/quicklist"
)

type List struct {
	ql *quicklist.List
}

func New(params config.Params) *List {
	return &List{ql: quicklist.New(params)}
}

func (l *List) Len() int { return l.ql.Len() }

func (l *List) PushHead(values ...[]byte) {
	for _, v := range values {
		l.ql.PushHead(v)
	}
}

func (l *List) PushTail(values ...[]byte) {
	for _, v := range values {
		l.ql.PushTail(v)
	}
}

func (l *List) PopHead() ([]byte, bool) { return l.ql.PopHead() }
func (l *List) PopTail() ([]byte, bool) { return l.ql.PopTail() }

// Index returns the element at position i (negative counts from the
// tail).
func (l *List) Index(i int) ([]byte, bool) {
	_, v, ok := l.ql.Index(i)
	return v, ok
}

// Set overwrites the element at position i.
func (l *List) Set(i int, value []byte) error {
	if !l.ql.ReplaceAt(i, value) {
		return kverrors.New(kverrors.OutOfRange, "index out of range")
	}
	return nil
}

// Range returns elements in [start, stop] inclusive (negative indices
// count from the tail, as in spec's range semantics).
func (l *List) Range(start, stop int) [][]byte {
	n := l.Len()
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil
	}
	var out [][]byte
	for i := start; i <= stop; i++ {
		_, v, ok := l.ql.Index(i)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Trim keeps only elements in [start, stop] inclusive, removing the rest.
func (l *List) Trim(start, stop int) {
	n := l.Len()
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		l.ql.DeleteRange(0, n)
		return
	}
	if stop+1 < n {
		l.ql.DeleteRange(stop+1, n-stop-1)
	}
	if start > 0 {
		l.ql.DeleteRange(0, start)
	}
}

// InsertBefore/InsertAfter insert value relative to the first
// occurrence of pivot found scanning from the head.
func (l *List) InsertBefore(pivot, value []byte) bool {
	return l.insertRelative(pivot, value, false)
}

func (l *List) InsertAfter(pivot, value []byte) bool {
	return l.insertRelative(pivot, value, true)
}

func (l *List) insertRelative(pivot, value []byte, after bool) bool {
	it := l.ql.NewIterator(quicklist.Head)
	for {
		v, e, ok := it.Next()
		if !ok {
			return false
		}
		if string(v) == string(pivot) {
			if after {
				l.ql.InsertAfter(e, value)
			} else {
				l.ql.InsertBefore(e, value)
			}
			return true
		}
	}
}

// Remove deletes up to count occurrences of value, scanning from the
// head if count >= 0 or from the tail if count < 0 (spec's LREM
// semantics); count == 0 removes all occurrences.
func (l *List) Remove(value []byte, count int) int {
	dir := quicklist.Head
	limit := count
	if count < 0 {
		dir = quicklist.Tail
		limit = -count
	}
	removed := 0
	it := l.ql.NewIterator(dir)
	for {
		v, e, ok := it.Next()
		if !ok {
			break
		}
		if string(v) == string(value) {
			it.Delete(e)
			removed++
			if limit > 0 && removed >= limit {
				break
			}
		}
	}
	return removed
}

// RotateTailToHead moves the tail element to the head.
func (l *List) RotateTailToHead() bool { return l.ql.RotateTailToHead() }

// All returns every element, head to tail.
func (l *List) All() [][]byte {
	return l.Range(0, l.Len()-1)
}
