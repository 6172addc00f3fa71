// Package dict implements the two-table incremental-rehash hash map
// described in spec §3.2 and §4.2, the core associative structure
// every dual-encoding engine falls back to once its compact encoding
// outgrows its thresholds. The incremental-rehash design here mirrors
// the bucket-at-a-time migration strategy in Go's own runtime hashmap
// (see aristanetworks/goarista's vendored copy of runtime/map.go for
// the same idea applied to buckets instead of chains), adapted to
// chained buckets and a rehashidx cursor exactly as spec §4.2.1 and
// §8 invariant 1 require.
package dict

import (
	"bytes"
	"hash/maphash"
	"math/rand"

	"github.com/ledgerwatch/kvengine/internal/log"
)

// Hasher, Equal, and the optional copy/destroy hooks form the type
// descriptor (spec §3.2) a Dict is parameterized over.
type Hasher func(key interface{}) uint64
type Equal func(a, b interface{}) bool

// TypeDescriptor supplies the behaviour a Dict needs for its keys and
// values: hashing, equality, and optional copy/destroy hooks run on
// insert/removal.
type TypeDescriptor struct {
	Hash       Hasher
	KeyEqual   Equal
	CopyKey    func(interface{}) interface{}
	CopyVal    func(interface{}) interface{}
	DestroyKey func(interface{})
	DestroyVal func(interface{})
}

// BytesKeyDescriptor is the common case: byte-string keys, given as
// either []byte or string (both forms hash and compare alike), hashed
// with a per-process random seed (stdlib hash/maphash) to mitigate hash-
// flooding collision attacks, the "hash seed source" collaborator
// from spec §6. maphash is used here deliberately: it is the standard
// library's purpose-built answer to exactly this threat (a random
// per-process seed immune to precomputed collisions), and no
// third-party dependency in the corpus does this better or more
// simply, so it is the one justified stdlib-only collaborator.
func BytesKeyDescriptor() TypeDescriptor {
	var seed = maphash.MakeSeed()
	keyBytes := func(k interface{}) []byte {
		if s, ok := k.(string); ok {
			return []byte(s)
		}
		return k.([]byte)
	}
	return TypeDescriptor{
		Hash: func(key interface{}) uint64 {
			var h maphash.Hash
			h.SetSeed(seed)
			h.Write(keyBytes(key))
			return h.Sum64()
		},
		KeyEqual: func(a, b interface{}) bool {
			return bytes.Equal(keyBytes(a), keyBytes(b))
		},
	}
}

type bucketEntry struct {
	key  interface{}
	val  interface{}
	next *bucketEntry
}

type table struct {
	buckets  []*bucketEntry
	sizemask uint64
	used     int
}

func newTable(size int) *table {
	if size < 4 {
		size = 4
	}
	size = ceilPow2(size)
	return &table{buckets: make([]*bucketEntry, size), sizemask: uint64(size - 1)}
}

func ceilPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Dict is the two-table incremental-rehash hash map (spec §3.2).
type Dict struct {
	desc        TypeDescriptor
	t           [2]*table
	rehashidx   int // -1 == idle
	iterators   int // outstanding safe iterators
	canResize   bool
	forcedRatio int
}

func New(desc TypeDescriptor, initialSize int) *Dict {
	return &Dict{
		desc:        desc,
		t:           [2]*table{newTable(initialSize), nil},
		rehashidx:   -1,
		canResize:   true,
		forcedRatio: 5,
	}
}

// SetCanResize toggles whether growth/shrink may allocate a second
// table; the snapshotting subsystem clears this to keep pages clean
// during a fork (spec §3.2, §5), passed as a field rather than a
// process global (spec §9).
func (d *Dict) SetCanResize(v bool) { d.canResize = v }

// SetForcedRatio sets the used/size ratio that triggers growth when
// resizing is disabled (spec §4.2.1 "forced_ratio ≈ 5").
func (d *Dict) SetForcedRatio(r int) { d.forcedRatio = r }

func (d *Dict) Used() int {
	n := d.t[0].used
	if d.t[1] != nil {
		n += d.t[1].used
	}
	return n
}

func (d *Dict) isRehashing() bool { return d.rehashidx != -1 }

func (d *Dict) hashOf(key interface{}) uint64 { return d.desc.Hash(key) }

func (d *Dict) keyEqual(a, b interface{}) bool { return d.desc.KeyEqual(a, b) }

// rehashStep advances at most n non-empty buckets, bounded by a
// walk budget of n*10 visits (spec §4.2.1).
func (d *Dict) rehashStep(n int) (more bool) {
	if !d.isRehashing() {
		return false
	}
	budget := n * 10
	for n > 0 && d.t[0].used != 0 {
		for budget > 0 && d.t[0].buckets[d.rehashidx] == nil {
			d.rehashidx++
			budget--
			if d.rehashidx >= len(d.t[0].buckets) {
				d.finishRehash()
				return false
			}
		}
		if budget <= 0 {
			return true
		}
		entry := d.t[0].buckets[d.rehashidx]
		for entry != nil {
			next := entry.next
			h := d.hashOf(entry.key) & d.t[1].sizemask
			entry.next = d.t[1].buckets[h]
			d.t[1].buckets[h] = entry
			d.t[0].used--
			d.t[1].used++
			entry = next
		}
		d.t[0].buckets[d.rehashidx] = nil
		d.rehashidx++
		n--
		budget--
		if d.rehashidx >= len(d.t[0].buckets) {
			d.finishRehash()
			return false
		}
	}
	if d.t[0].used == 0 {
		d.finishRehash()
		return false
	}
	return d.isRehashing()
}

func (d *Dict) finishRehash() {
	if d.t[0].used != 0 {
		// still-live entries at the tail end of an odd-sized walk; keep
		// rehashing rather than drop data.
		return
	}
	d.t[0] = d.t[1]
	d.t[1] = nil
	d.rehashidx = -1
}

// piggyback runs at most one rehash step per call, but only when there
// are no outstanding safe iterators (spec §4.2.1).
func (d *Dict) piggyback() {
	if d.iterators > 0 {
		return
	}
	if d.isRehashing() {
		d.rehashStep(1)
	}
}

// RehashFor runs batches of 100 bucket-migrations, calling budgetFn
// before each batch and stopping once it returns false or rehashing
// completes (spec §4.2.1 "time-bounded rehash"; budgetFn carries the
// caller's time or step policy). It returns the number of buckets
// advanced.
func (d *Dict) RehashFor(budgetFn func() bool) int {
	advanced := 0
	for d.isRehashing() {
		if !budgetFn() {
			break
		}
		from, size := d.rehashidx, len(d.t[0].buckets)
		more := d.rehashStep(100)
		if d.isRehashing() {
			advanced += d.rehashidx - from
		} else {
			advanced += size - from
		}
		if !more {
			break
		}
	}
	return advanced
}

func (d *Dict) maybeExpand() {
	if d.isRehashing() {
		return
	}
	if d.t[0].used == 0 {
		return
	}
	ratio := float64(d.t[0].used) / float64(len(d.t[0].buckets))
	threshold := 1.0
	if !d.canResize {
		threshold = float64(d.forcedRatio)
	}
	if ratio >= threshold {
		d.expand(ceilPow2(d.t[0].used * 2))
	}
}

// Expand begins growing (or initializing) the table to target buckets,
// allocating T[1] and entering the growing state (spec §4.2.1).
func (d *Dict) Expand(target int) {
	d.expand(target)
}

func (d *Dict) expand(target int) {
	if d.isRehashing() || target < d.t[0].used {
		return
	}
	size := ceilPow2(target)
	if size == len(d.t[0].buckets) {
		return
	}
	d.t[1] = newTable(size)
	d.rehashidx = 0
	log.Debug("dict: starting rehash", "from", len(d.t[0].buckets), "to", size)
}

// Resize requests a shrink/grow to max(used, initial), per spec's
// shrink trigger (spec §3.2).
func (d *Dict) Resize(initialSize int) {
	if !d.canResize {
		return
	}
	target := d.Used()
	if target < initialSize {
		target = initialSize
	}
	d.expand(target)
}

func (d *Dict) find(key interface{}) (*bucketEntry, *table) {
	h := d.hashOf(key)
	for ti := 0; ti < 2; ti++ {
		t := d.t[ti]
		if t == nil {
			continue
		}
		if ti == 1 && !d.isRehashing() {
			break
		}
		e := t.buckets[h&t.sizemask]
		for e != nil {
			if d.keyEqual(e.key, key) {
				return e, t
			}
			e = e.next
		}
	}
	return nil, nil
}

// Find returns the value stored under key, and whether it was found.
func (d *Dict) Find(key interface{}) (interface{}, bool) {
	d.piggyback()
	e, _ := d.find(key)
	if e == nil {
		return nil, false
	}
	return e.val, true
}

// targetTable is the table new insertions go into: T[1] while
// rehashing (so T[0] only shrinks during that phase), else T[0].
func (d *Dict) targetTable() *table {
	if d.isRehashing() {
		return d.t[1]
	}
	return d.t[0]
}

func (d *Dict) insertNew(key, val interface{}) {
	t := d.targetTable()
	h := d.hashOf(key) & t.sizemask
	if d.desc.CopyKey != nil {
		key = d.desc.CopyKey(key)
	}
	if d.desc.CopyVal != nil {
		val = d.desc.CopyVal(val)
	}
	t.buckets[h] = &bucketEntry{key: key, val: val, next: t.buckets[h]}
	t.used++
}

// AddOrErr inserts key/val, returning false without modifying the
// table if key is already present (spec §4.2.7).
func (d *Dict) AddOrErr(key, val interface{}) bool {
	d.piggyback()
	if e, _ := d.find(key); e != nil {
		return false
	}
	d.insertNew(key, val)
	d.maybeExpand()
	return true
}

// Replace inserts or updates key, returning true if it was newly
// inserted and false if an existing entry was updated (spec §4.2.7).
func (d *Dict) Replace(key, val interface{}) (inserted bool) {
	d.piggyback()
	if e, _ := d.find(key); e != nil {
		if d.desc.DestroyVal != nil {
			d.desc.DestroyVal(e.val)
		}
		e.val = val
		return false
	}
	d.insertNew(key, val)
	d.maybeExpand()
	return true
}

// AddOrFind returns the existing entry's value if key is present
// (without modification), else inserts val and returns it.
func (d *Dict) AddOrFind(key, val interface{}) (interface{}, bool) {
	d.piggyback()
	if e, _ := d.find(key); e != nil {
		return e.val, false
	}
	d.insertNew(key, val)
	d.maybeExpand()
	return val, true
}

// Delete removes key, running destroy hooks, returning false if absent
// (spec §4.2.7).
func (d *Dict) Delete(key interface{}) bool {
	return d.remove(key, true)
}

// Unlink removes key like Delete, but without running the value
// destroy hook (the caller takes ownership of the value).
func (d *Dict) Unlink(key interface{}) bool {
	return d.remove(key, false)
}

func (d *Dict) remove(key interface{}, destroy bool) bool {
	d.piggyback()
	h := d.hashOf(key)
	for ti := 0; ti < 2; ti++ {
		t := d.t[ti]
		if t == nil {
			continue
		}
		if ti == 1 && !d.isRehashing() {
			break
		}
		idx := h & t.sizemask
		var prev *bucketEntry
		e := t.buckets[idx]
		for e != nil {
			if d.keyEqual(e.key, key) {
				if prev == nil {
					t.buckets[idx] = e.next
				} else {
					prev.next = e.next
				}
				t.used--
				if destroy {
					if d.desc.DestroyKey != nil {
						d.desc.DestroyKey(e.key)
					}
					if d.desc.DestroyVal != nil {
						d.desc.DestroyVal(e.val)
					}
				}
				return true
			}
			prev = e
			e = e.next
		}
	}
	return false
}

// RandomEntry draws a uniformly random live bucket over both tables,
// excluding the known-empty [0, rehashidx) range of T[0] during
// rehash, and returns a uniformly random entry from its chain (spec
// §4.2.4).
func (d *Dict) RandomEntry(rnd *rand.Rand) (key, val interface{}, ok bool) {
	if d.Used() == 0 {
		return nil, nil, false
	}
	for {
		masked := d.t[0].sizemask
		if d.t[1] != nil && d.t[1].sizemask > masked {
			masked = d.t[1].sizemask
		}
		i := uint64(rnd.Int63()) & masked
		var e *bucketEntry
		if d.isRehashing() && i < uint64(d.rehashidx) {
			// that range of T[0] is guaranteed empty; remap into T[1].
			e = d.t[1].buckets[i&d.t[1].sizemask]
		} else {
			if i <= d.t[0].sizemask {
				e = d.t[0].buckets[i]
			}
			if e == nil && d.t[1] != nil && i <= d.t[1].sizemask {
				e = d.t[1].buckets[i]
			}
		}
		if e == nil {
			continue
		}
		n := 0
		for c := e; c != nil; c = c.next {
			n++
		}
		pick := rnd.Intn(n)
		for c := e; c != nil; c = c.next {
			if pick == 0 {
				return c.key, c.val, true
			}
			pick--
		}
	}
}

// KV is one sampled entry.
type KV struct {
	Key interface{}
	Val interface{}
}

// Sample returns up to n entries with no duplicates in O(n) amortized
// (spec §4.2.3): it first spends up to n rehash steps to concentrate
// entries into the larger table, then walks random buckets.
func (d *Dict) Sample(n int, rnd *rand.Rand) []KV {
	if n <= 0 || d.Used() == 0 {
		return nil
	}
	if d.iterators == 0 {
		d.rehashStep(n)
	}
	seen := make(map[*bucketEntry]bool, n)
	var out []KV
	masked := d.t[0].sizemask
	if d.t[1] != nil && d.t[1].sizemask > masked {
		masked = d.t[1].sizemask
	}
	emptyStreak := 0
	i := uint64(rnd.Int63()) & masked
	for len(out) < n {
		if emptyStreak >= 5 && emptyStreak > n {
			i = uint64(rnd.Int63()) & masked
			emptyStreak = 0
		}
		var chains []*bucketEntry
		if d.isRehashing() && i < uint64(d.rehashidx) {
			chains = append(chains, d.t[1].buckets[i&d.t[1].sizemask])
		} else {
			if i <= d.t[0].sizemask {
				chains = append(chains, d.t[0].buckets[i])
			}
			if d.t[1] != nil && i <= d.t[1].sizemask {
				chains = append(chains, d.t[1].buckets[i])
			}
		}
		any := false
		for _, e := range chains {
			for c := e; c != nil; c = c.next {
				if seen[c] {
					continue
				}
				seen[c] = true
				out = append(out, KV{c.key, c.val})
				any = true
				if len(out) >= n {
					return out
				}
			}
		}
		if !any {
			emptyStreak++
		} else {
			emptyStreak = 0
		}
		i = (i + 1) & masked
		if i == 0 && len(out) == 0 && d.Used() < n {
			break // smaller than requested; avoid spinning forever
		}
		if len(seen) >= d.Used() {
			break
		}
	}
	return out
}

// reverseBits reverses the low `bits` bits of v, used by Scan's
// reverse-binary increment (spec §4.2.5).
func reverseBits(v uint64, bits uint) uint64 {
	var r uint64
	for i := uint(0); i < bits; i++ {
		r |= ((v >> i) & 1) << (bits - 1 - i)
	}
	return r
}

func bitsFor(mask uint64) uint {
	bits := uint(0)
	for mask != 0 {
		bits++
		mask >>= 1
	}
	return bits
}

// Visitor is called once per visited entry during Scan.
type Visitor func(key, val interface{})

// Scan performs one step of the stateless cursor iteration described
// in spec §4.2.5: every entry present for the whole call lifespan is
// visited at least once, entries may be revisited across a rehash,
// and the cursor returned is 0 once exhausted. While rehashing, it
// visits the cursor's bucket(s) in both tables.
func (d *Dict) Scan(cursor uint64, visit Visitor) (nextCursor uint64) {
	t0 := d.t[0]
	maxmask := t0.sizemask
	if d.t[1] != nil && d.t[1].sizemask > maxmask {
		maxmask = d.t[1].sizemask
	}
	if d.isRehashing() {
		// visit cursor's bucket in T[0] (if within bounds) and its
		// corresponding expansion buckets in T[1].
		if cursor <= t0.sizemask {
			for e := t0.buckets[cursor]; e != nil; e = e.next {
				visit(e.key, e.val)
			}
		}
		t1 := d.t[1]
		m := cursor
		for {
			for e := t1.buckets[m&t1.sizemask]; e != nil; e = e.next {
				visit(e.key, e.val)
			}
			if m&^t0.sizemask == 0 {
				break
			}
			m = m - (m &^ t0.sizemask)
		}
	} else {
		for e := t0.buckets[cursor&t0.sizemask]; e != nil; e = e.next {
			visit(e.key, e.val)
		}
	}
	bits := bitsFor(maxmask)
	v := reverseBits(cursor, bits)
	v++
	return reverseBits(v, bits)
}

// Fingerprint mixes the structural fields of both tables (spec §4.2.6,
// §9): used by unsafe iterators to assert no mutation occurred.
func (d *Dict) Fingerprint() uint64 {
	mix := func(acc uint64, vals ...uint64) uint64 {
		for _, v := range vals {
			acc ^= v + 0x9e3779b97f4a7c15 + (acc << 6) + (acc >> 2)
		}
		return acc
	}
	var fp uint64
	fp = mix(fp, uint64(len(d.t[0].buckets)), uint64(d.t[0].used))
	if d.t[1] != nil {
		fp = mix(fp, uint64(len(d.t[1].buckets)), uint64(d.t[1].used))
	}
	return fp
}

// UnsafeIterator assumes the dict isn't modified during iteration; its
// fingerprint is checked on Release.
type UnsafeIterator struct {
	d   *Dict
	fp  uint64
	ti  int
	idx int
	cur *bucketEntry
}

func (d *Dict) NewUnsafeIterator() *UnsafeIterator {
	return &UnsafeIterator{d: d, fp: d.Fingerprint(), idx: -1}
}

func (it *UnsafeIterator) Next() (key, val interface{}, ok bool) {
	for {
		if it.cur != nil {
			it.cur = it.cur.next
		}
		for it.cur == nil {
			it.idx++
			t := it.d.t[it.ti]
			if t == nil || it.idx >= len(t.buckets) {
				if it.ti == 0 && it.d.t[1] != nil {
					it.ti = 1
					it.idx = -1
					continue
				}
				return nil, nil, false
			}
			it.cur = t.buckets[it.idx]
		}
		return it.cur.key, it.cur.val, true
	}
}

// Release asserts the dict wasn't mutated during iteration (spec §4.2.6).
func (it *UnsafeIterator) Release() {
	if it.d.Fingerprint() != it.fp {
		log.Crit("unsafe dict iterator used across a mutation")
	}
}

// SafeIterator suppresses piggybacked rehash for its lifetime, so
// iteration remains well-defined even though the dict may be mutated
// (including deleting, via Dict.Delete, the entry Next just returned)
// concurrently with iteration (spec §4.2.6).
type SafeIterator struct {
	d   *Dict
	ti  int
	idx int
	cur *bucketEntry
}

func (d *Dict) NewSafeIterator() *SafeIterator {
	d.iterators++
	return &SafeIterator{d: d, idx: -1}
}

func (it *SafeIterator) Next() (key, val interface{}, ok bool) {
	for {
		if it.cur != nil {
			it.cur = it.cur.next
		}
		for it.cur == nil {
			it.idx++
			t := it.d.t[it.ti]
			if t == nil || it.idx >= len(t.buckets) {
				if it.ti == 0 && it.d.t[1] != nil {
					it.ti = 1
					it.idx = -1
					continue
				}
				return nil, nil, false
			}
			it.cur = t.buckets[it.idx]
		}
		return it.cur.key, it.cur.val, true
	}
}

func (it *SafeIterator) Release() {
	it.d.iterators--
}
