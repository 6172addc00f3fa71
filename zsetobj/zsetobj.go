// Package zsetobj implements SortedSetEngine (spec §3.2/§4.2's sorted
// set representation): a dual-encoding member->score map that starts
// as a PackedEntrySeq of alternating member/score pairs and converts
// to a dict (membership + score lookup) paired with an
// OrderedScoreIndex (ranked traversal) once it outgrows its thresholds.
package zsetobj

import (
	"strconv"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/dict"
	"github.com/ledgerwatch/kvengine/orderedindex"
	"github.com/ledgerwatch/kvengine/ziplist"
)

type Encoding int

const (
	EncZiplist Encoding = iota
	EncSkiplist
)

type ZSet struct {
	enc Encoding

	seq *ziplist.Seq // alternating member, score

	scores *dict.Dict // member -> float64, when EncSkiplist
	index  *orderedindex.Index

	params config.Params
}

func New(params config.Params) *ZSet {
	return &ZSet{enc: EncZiplist, seq: ziplist.New(), params: params}
}

func (z *ZSet) Encoding() Encoding { return z.enc }

func (z *ZSet) Len() int {
	if z.enc == EncZiplist {
		return z.seq.Len() / 2
	}
	return z.scores.Used()
}

func formatScore(s float64) []byte {
	return []byte(strconv.FormatFloat(s, 'g', -1, 64))
}

func parseScore(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (z *ZSet) findInSeq(member []byte) (ziplist.Cursor, ziplist.Cursor, bool) {
	n := z.seq.Len()
	for i := 0; i+1 < n; i += 2 {
		mc, ok := z.seq.Index(i)
		if !ok {
			break
		}
		if z.seq.Compare(mc, member) {
			sc, _ := z.seq.Index(i + 1)
			return mc, sc, true
		}
	}
	return 0, 0, false
}

func (z *ZSet) convertToSkiplist() {
	if z.enc == EncSkiplist {
		return
	}
	d := dict.New(dict.BytesKeyDescriptor(), z.seq.Len()/2)
	ix := orderedindex.New()
	all := z.seq.All()
	for i := 0; i+1 < len(all); i += 2 {
		member := append([]byte(nil), all[i]...)
		score, _ := parseScore(all[i+1])
		d.AddOrErr(string(member), score)
		ix.Insert(member, score)
	}
	z.scores = d
	z.index = ix
	z.seq = nil
	z.enc = EncSkiplist
}

func (z *ZSet) maybeConvert(member []byte) {
	if z.enc != EncZiplist {
		return
	}
	if z.seq.Len()/2 > z.params.MaxZsetZiplistEntries || len(member) > z.params.MaxZsetZiplistValue {
		z.convertToSkiplist()
	}
}

// Add sets member's score, returning true if member is new (spec §4.2).
func (z *ZSet) Add(member []byte, score float64) bool {
	if z.enc == EncZiplist {
		if mc, sc, ok := z.findInSeq(member); ok {
			z.seq.DeleteAt(sc)
			z.seq.InsertAt(sc, formatScore(score))
			_ = mc
			return false
		}
		z.seq.PushTail(member)
		z.seq.PushTail(formatScore(score))
		z.maybeConvert(member)
		return true
	}
	member = append([]byte(nil), member...)
	inserted := z.index.Insert(member, score)
	z.scores.Replace(string(member), score)
	return inserted
}

// Score returns member's score.
func (z *ZSet) Score(member []byte) (float64, bool) {
	if z.enc == EncZiplist {
		_, sc, ok := z.findInSeq(member)
		if !ok {
			return 0, false
		}
		e, _ := z.seq.Get(sc)
		return parseScore(e.Bytes())
	}
	v, ok := z.scores.Find(string(member))
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// IncrBy adds delta to member's score, creating it at 0 first if absent.
func (z *ZSet) IncrBy(member []byte, delta float64) float64 {
	cur, _ := z.Score(member)
	next := cur + delta
	z.Add(member, next)
	return next
}

// Remove deletes member, returning true if it was present.
func (z *ZSet) Remove(member []byte) bool {
	if z.enc == EncZiplist {
		mc, sc, ok := z.findInSeq(member)
		if !ok {
			return false
		}
		z.seq.DeleteAt(sc)
		z.seq.DeleteAt(mc)
		return true
	}
	if !z.scores.Delete(string(member)) {
		return false
	}
	z.index.Delete(member)
	return true
}

// Rank returns member's 0-based ascending rank.
func (z *ZSet) Rank(member []byte) (int, bool) {
	if z.enc == EncZiplist {
		score, ok := z.Score(member)
		if !ok {
			return 0, false
		}
		rank := 0
		all := z.seq.All()
		for i := 0; i+1 < len(all); i += 2 {
			s, _ := parseScore(all[i+1])
			if s < score || (s == score && string(all[i]) < string(member)) {
				rank++
			}
		}
		return rank, true
	}
	return z.index.Rank(member)
}

// RangeByScore returns (member, score) pairs with score between min
// and max, with either bound inclusive or exclusive per minExcl/
// maxExcl.
func (z *ZSet) RangeByScore(min, max float64, minExcl, maxExcl bool) ([][]byte, []float64) {
	if z.enc == EncZiplist {
		z.ensureIndexedView()
	}
	items := z.index.RangeByScore(min, max, minExcl, maxExcl)
	members := make([][]byte, len(items))
	scores := make([]float64, len(items))
	for i, it := range items {
		members[i] = it.Member
		scores[i] = it.Score
	}
	return members, scores
}

// RangeByLex returns members in [min, max] lexical order, assuming
// every member shares the same score (spec §4.7's range_by_lex
// precondition). A nil bound is unbounded on that side.
func (z *ZSet) RangeByLex(min, max []byte) [][]byte {
	if z.enc == EncZiplist {
		z.ensureIndexedView()
	}
	items := z.index.RangeByLex(min, max)
	members := make([][]byte, len(items))
	for i, it := range items {
		members[i] = it.Member
	}
	return members
}

// RangeByRank returns (member, score) pairs for the ascending-rank
// window [start, stop] (negative indices count from the end).
func (z *ZSet) RangeByRank(start, stop int) ([][]byte, []float64) {
	if z.enc == EncZiplist {
		z.ensureIndexedView()
	}
	items := z.index.RangeByRank(start, stop)
	members := make([][]byte, len(items))
	scores := make([]float64, len(items))
	for i, it := range items {
		members[i] = it.Member
		scores[i] = it.Score
	}
	return members, scores
}

// ensureIndexedView builds a throwaway orderedindex snapshot for
// range queries while still in ziplist encoding, without converting
// the set's canonical representation. This is only efficient for the
// small-cardinality case the ziplist encoding guarantees (spec §4.2's
// entry-count threshold), matching the bound a real implementation
// would use a zero-allocation scan for; here the pack's available
// ordered-tree dependency is reused for simplicity.
func (z *ZSet) ensureIndexedView() {
	ix := orderedindex.New()
	all := z.seq.All()
	for i := 0; i+1 < len(all); i += 2 {
		s, _ := parseScore(all[i+1])
		ix.Insert(all[i], s)
	}
	z.index = ix
}

// Contains reports whether member has a score.
func (z *ZSet) Contains(member []byte) bool {
	_, ok := z.Score(member)
	return ok
}

