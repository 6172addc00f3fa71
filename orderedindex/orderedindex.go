// Package orderedindex implements OrderedScoreIndex (spec §3.5, §4.5):
// an index of (score, member) pairs ordered first by score then by
// member, supporting rank and range queries. It is backed by
// github.com/petar/GoLLRB/llrb, the same red-black tree this codebase
// already uses elsewhere to keep candidate chain tips ordered by
// cumulative difficulty, with the tie-break swapped for the member
// name instead of a block hash.
package orderedindex

import (
	"bytes"

	"github.com/petar/GoLLRB/llrb"
)

// Item is one (score, member) pair.
type Item struct {
	Score  float64
	Member []byte
}

func (a *Item) Less(b llrb.Item) bool {
	bi := b.(*Item)
	if a.Score != bi.Score {
		return a.Score < bi.Score
	}
	return bytes.Compare(a.Member, bi.Member) < 0
}

// Index is the ordered (score, member) structure.
type Index struct {
	tree  *llrb.LLRB
	byKey map[string]float64
}

func New() *Index {
	return &Index{tree: llrb.New(), byKey: make(map[string]float64)}
}

func (ix *Index) Len() int { return ix.tree.Len() }

// Insert adds or updates member's score, returning true if member is
// new (spec §4.5).
func (ix *Index) Insert(member []byte, score float64) bool {
	key := string(member)
	old, existed := ix.byKey[key]
	if existed {
		ix.tree.Delete(&Item{Score: old, Member: member})
	}
	ix.tree.InsertNoReplace(&Item{Score: score, Member: member})
	ix.byKey[key] = score
	return !existed
}

// Delete removes member, returning true if it was present.
func (ix *Index) Delete(member []byte) bool {
	key := string(member)
	score, ok := ix.byKey[key]
	if !ok {
		return false
	}
	ix.tree.Delete(&Item{Score: score, Member: member})
	delete(ix.byKey, key)
	return true
}

// Score returns member's current score.
func (ix *Index) Score(member []byte) (float64, bool) {
	s, ok := ix.byKey[string(member)]
	return s, ok
}

// Rank returns member's 0-based ascending rank (spec §4.5). GoLLRB has
// no order-statistics augmentation, so rank is computed by an
// in-order traversal up to member, O(log n + rank) rather than the
// strict O(log n) a fully augmented tree would give, a deliberate
// trade accepted to keep using a real tree dependency rather than
// hand-rolling an augmented skip list.
func (ix *Index) Rank(member []byte) (int, bool) {
	score, ok := ix.byKey[string(member)]
	if !ok {
		return 0, false
	}
	target := &Item{Score: score, Member: member}
	rank := 0
	ix.tree.AscendLessThan(target, func(i llrb.Item) bool {
		rank++
		return true
	})
	return rank, true
}

// RangeByRank returns members with ascending rank in [start, stop]
// inclusive (negative indices count from the end, as in spec §4.5).
func (ix *Index) RangeByRank(start, stop int) []Item {
	n := ix.tree.Len()
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
	var out []Item
	i := 0
	ix.tree.AscendGreaterOrEqual(ix.tree.Min(), func(it llrb.Item) bool {
		if i >= start && i <= stop {
			item := it.(*Item)
			out = append(out, *item)
		}
		i++
		return i <= stop
	})
	return out
}

// RangeByScore returns members whose score lies between min and max,
// with either bound inclusive or exclusive per minExcl/maxExcl (spec
// §6's OrderedScoreIndex contract).
func (ix *Index) RangeByScore(min, max float64, minExcl, maxExcl bool) []Item {
	var out []Item
	from := &Item{Score: min, Member: nil}
	ix.tree.AscendGreaterOrEqual(from, func(it llrb.Item) bool {
		item := it.(*Item)
		if item.Score > max || (maxExcl && item.Score == max) {
			return false
		}
		if item.Score > min || (!minExcl && item.Score == min) {
			out = append(out, *item)
		}
		return true
	})
	return out
}

// RangeByLex returns members in [min, max] lexical order, assuming all
// members share the same score (spec §4.5's lex-range precondition).
func (ix *Index) RangeByLex(min, max []byte) []Item {
	var out []Item
	ix.tree.AscendGreaterOrEqual(ix.tree.Min(), func(it llrb.Item) bool {
		item := it.(*Item)
		if min != nil && bytes.Compare(item.Member, min) < 0 {
			return true
		}
		if max != nil && bytes.Compare(item.Member, max) > 0 {
			return false
		}
		out = append(out, *item)
		return true
	})
	return out
}

// All returns every item in ascending order; used by debug tooling and
// tests.
func (ix *Index) All() []Item {
	var out []Item
	if ix.tree.Len() == 0 {
		return out
	}
	ix.tree.AscendGreaterOrEqual(ix.tree.Min(), func(it llrb.Item) bool {
		out = append(out, *it.(*Item))
		return true
	})
	return out
}
