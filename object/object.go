// Package object implements ValueObject (spec §3.1, §4.1): a tagged,
// reference-counted value with per-type multi-encoding dispatch, a
// shared small-integer pool, and LRU/LFU access metadata.
package object

import (
	"fmt"
	"strconv"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/davecgh/go-spew/spew"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/internal/log"
)

// Type is the object's type tag.
type Type int

const (
	TypeString Type = iota
	TypeList
	TypeSet
	TypeHash
	TypeSortedSet
	TypeModule
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeSortedSet:
		return "zset"
	case TypeModule:
		return "module"
	default:
		return "unknown"
	}
}

// Encoding is the concrete representation tag.
type Encoding int

const (
	EncRaw Encoding = iota
	EncEmbstr
	EncInt
	EncZiplist
	EncQuicklist
	EncIntset
	EncHashtable
	EncSkiplist
)

func (e Encoding) String() string {
	switch e {
	case EncRaw:
		return "raw"
	case EncEmbstr:
		return "embstr"
	case EncInt:
		return "int"
	case EncZiplist:
		return "ziplist"
	case EncQuicklist:
		return "quicklist"
	case EncIntset:
		return "intset"
	case EncHashtable:
		return "hashtable"
	case EncSkiplist:
		return "skiplist"
	default:
		return "unknown"
	}
}

// validEncodings pins which encodings each type may carry (spec §3.1
// invariant: "type tag and encoding tag are jointly valid").
var validEncodings = map[Type]map[Encoding]bool{
	TypeString:    {EncRaw: true, EncEmbstr: true, EncInt: true},
	TypeList:      {EncQuicklist: true},
	TypeSet:       {EncIntset: true, EncHashtable: true},
	TypeHash:      {EncZiplist: true, EncHashtable: true},
	TypeSortedSet: {EncZiplist: true, EncSkiplist: true},
	TypeModule:    {},
}

// Shared is the sentinel refcount marking a globally shared, never-
// mutated, never-freed object (spec §3.1, §4.1). Refcount operations
// on a shared object are no-ops.
const Shared int32 = 1<<31 - 1

// embstrMaxLen is the length threshold between embedded-short-string
// and raw-string layout (spec §4.1).
const embstrMaxLen = 44

// Object is the tagged polymorphic value. Rather than a pointer-to-
// interface tagged union, each variant's payload is inlined as its own
// field (spec §9: "inlining its concrete representation to avoid a
// separate pointer hop"); exactly one is meaningful at a time,
// determined by Encoding.
type Object struct {
	typ      Type
	enc      Encoding
	refcount int32

	intVal int64  // valid when enc == EncInt
	raw    []byte // valid when enc in {EncRaw, EncEmbstr}

	// Container is the engine-owned representation for list/set/hash/
	// zset objects (a *listobj.List, *setobj.Set, *hashobj.Hash, or
	// *zsetobj.ZSet), opaque here to avoid a dependency cycle
	// between object and the engine packages that build on it.
	Container interface{}

	// AccessMeta holds the low 24 bits of access metadata, an LRU clock
	// stamp or an LFU counter+decay time; nothing in this package sets
	// or reads it, and config.AccessPolicy is not consulted here.
	AccessMeta uint32
}

func (o *Object) Type() Type         { return o.typ }
func (o *Object) Encoding() Encoding { return o.enc }
func (o *Object) Refcount() int32    { return o.refcount }
func (o *Object) IsShared() bool     { return o.refcount == Shared }

// SetEncoding is used by engines performing an in-place encoding
// conversion (e.g. intset -> hashtable); it asserts the new encoding is
// valid for the object's type.
func (o *Object) SetEncoding(enc Encoding) {
	if !validEncodings[o.typ][enc] {
		log.Crit("invalid encoding for type", "type", o.typ, "encoding", enc)
	}
	o.enc = enc
}

func newContainer(typ Type, enc Encoding) *Object {
	if !validEncodings[typ][enc] {
		log.Crit("invalid encoding for type", "type", typ, "encoding", enc)
	}
	return &Object{typ: typ, enc: enc, refcount: 1}
}

// NewContainer builds an empty list/set/hash/zset object wrapping the
// given engine-owned representation at the given encoding.
func NewContainer(typ Type, enc Encoding, container interface{}) *Object {
	o := newContainer(typ, enc)
	o.Container = container
	return o
}

// Pool owns the shared small-integer pool and (optionally) a
// fastcache-backed interning table for short, non-numeric strings.
// It is passed explicitly rather than kept as a package-level global
// (spec §9: prefer a context field to a process global); each Pool
// builds its own shared-integer objects, shared by every caller of
// that Pool.
type Pool struct {
	params      config.Params
	sharedInts  []*Object
	internCache *fastcache.Cache
}

func NewPool(params config.Params) *Pool {
	p := &Pool{params: params}
	n := int(params.SharedIntegers)
	p.sharedInts = make([]*Object, n)
	for i := 0; i < n; i++ {
		p.sharedInts[i] = &Object{typ: TypeString, enc: EncInt, intVal: int64(i), refcount: Shared}
	}
	if params.InternShortStrings {
		p.internCache = fastcache.New(int(params.InternCacheBytes))
	}
	return p
}

// MakeString builds a string object, choosing embedded-short-string or
// raw-string layout by length (spec §4.1).
func (p *Pool) MakeString(b []byte) *Object {
	if n, ok := parseCanonicalInt(b); ok {
		return p.MakeStringFromInt(n)
	}
	return p.makeByteString(b)
}

func (p *Pool) makeByteString(b []byte) *Object {
	if p.internCache != nil && len(b) > 0 && len(b) <= embstrMaxLen {
		key := b
		if got := p.internCache.Get(nil, key); got != nil {
			cp := make([]byte, len(got))
			copy(cp, got)
			return &Object{typ: TypeString, enc: EncEmbstr, raw: cp, refcount: 1}
		}
		p.internCache.Set(key, b)
	}
	enc := EncRaw
	if len(b) <= embstrMaxLen {
		enc = EncEmbstr
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Object{typ: TypeString, enc: enc, raw: cp, refcount: 1}
}

// MakeStringFromInt builds a string object for an integer, returning a
// shared object for values in [0, SharedIntegers) (spec §4.1).
func (p *Pool) MakeStringFromInt(i int64) *Object {
	if i >= 0 && i < p.params.SharedIntegers {
		return p.sharedInts[i]
	}
	return &Object{typ: TypeString, enc: EncInt, intVal: i, refcount: 1}
}

func parseCanonicalInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

// Incref/Decref are no-ops on shared objects (spec §4.1).

func Incref(o *Object) {
	if o.refcount == Shared {
		return
	}
	o.refcount++
}

// Decref decrements the refcount, destroying the object's container at
// zero. Decrementing below zero is a programming error and is fatal
// (spec §4.1, §7).
func (p *Pool) Decref(o *Object) {
	if o.refcount == Shared {
		return
	}
	o.refcount--
	if o.refcount == 0 {
		o.Container = nil
		o.raw = nil
		return
	}
	if o.refcount < 0 {
		log.Crit("refcount underflow", "type", o.typ, "encoding", o.enc)
	}
}

// TryCompactString attempts to shrink o's representation in place,
// never mutating shared objects (spec §4.1). It may return a different
// (possibly shared) object; callers should replace their reference
// with the result.
func (p *Pool) TryCompactString(o *Object) *Object {
	if o.IsShared() || o.typ != TypeString {
		return o
	}
	if o.enc == EncInt {
		return o
	}
	b := o.raw
	if n, ok := parseCanonicalInt(b); ok {
		if n >= 0 && n < p.params.SharedIntegers {
			return p.sharedInts[n]
		}
		o.enc = EncInt
		o.intVal = n
		o.raw = nil
		return o
	}
	if len(b) <= embstrMaxLen && o.enc == EncRaw {
		cp := make([]byte, len(b))
		copy(cp, b)
		o.raw = cp
		o.enc = EncEmbstr
		return o
	}
	if o.enc == EncRaw && cap(o.raw) > len(o.raw)*110/100 {
		trimmed := make([]byte, len(o.raw))
		copy(trimmed, o.raw)
		o.raw = trimmed
	}
	return o
}

// DecodeToString materializes the byte form of a string object,
// incrementing refcount on an already-byte-valued object rather than
// copying (spec §4.1).
func (p *Pool) DecodeToString(o *Object) *Object {
	if o.enc == EncInt {
		return p.makeByteString([]byte(strconv.FormatInt(o.intVal, 10)))
	}
	Incref(o)
	return o
}

// Bytes returns the materialized byte form without changing refcounts.
func (o *Object) Bytes() []byte {
	if o.enc == EncInt {
		return []byte(strconv.FormatInt(o.intVal, 10))
	}
	return o.raw
}

// Int returns the integer value and true if o is integer-encoded.
func (o *Object) Int() (int64, bool) {
	if o.enc == EncInt {
		return o.intVal, true
	}
	return 0, false
}

// Equal compares two string objects: integer-vs-integer compares
// integers directly; otherwise it's a byte-wise comparison of the
// materialized form (spec §4.1).
func Equal(a, b *Object) bool {
	if a.enc == EncInt && b.enc == EncInt {
		return a.intVal == b.intVal
	}
	return string(a.Bytes()) == string(b.Bytes())
}

// Dump is a debug-introspection helper (SPEC_FULL §4: not in spec.md,
// used by tests and the CLI's DEBUG OBJECT command).
func (o *Object) Dump() string {
	return fmt.Sprintf("type=%s encoding=%s refcount=%d shared=%v payload=%s",
		o.typ, o.enc, o.refcount, o.IsShared(), spew.Sdump(o.payloadForDump()))
}

func (o *Object) payloadForDump() interface{} {
	switch o.enc {
	case EncInt:
		return o.intVal
	case EncRaw, EncEmbstr:
		return o.raw
	default:
		return o.Container
	}
}
