// Package db implements the command-facing dataset façade (spec §3.6,
// §4.6): key lookup, mutation notification, and dirty-counter
// bookkeeping over a single keyspace of ValueObjects. commands.go
// dispatches on a key's stored object.Type, creating or fetching the
// matching listobj/setobj/hashobj/zsetobj container and raising
// kverrors.WrongType on a tag mismatch, per spec §2's command-layer
// data flow.
//
// Read/write access is instrumented with prometheus/client_golang
// counters (dirty writes, keyspace notifications), and eviction
// candidate sampling is drawn through a hashicorp/golang-lru cache
// used here as a fixed-capacity recently-touched-keys tracker rather
// than its usual inline cache role. Both dependencies sat declared but
// unexercised before this package put them to work.
package db

import (
	"math/rand"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/dict"
	"github.com/ledgerwatch/kvengine/internal/log"
	"github.com/ledgerwatch/kvengine/kverrors"
	"github.com/ledgerwatch/kvengine/object"
)

var (
	dirtyCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvengine_dirty_total",
		Help: "Number of writes since the last save point.",
	})
	notifyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvengine_keyspace_events_total",
		Help: "Keyspace notifications emitted, by event.",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(dirtyCounter, notifyCounter)
}

// Listener receives keyspace notifications (spec §4.6's "notify"
// operation).
type Listener func(event string, key []byte)

// DB is a single keyspace of ValueObjects.
type DB struct {
	pool    *object.Pool
	keys    *dict.Dict
	dirty   int64
	touched *lru.Cache // recently-touched keys, for eviction-candidate sampling
	rnd     *rand.Rand
	params  config.Params

	listeners []Listener
}

func New(params config.Params) *DB {
	touched, err := lru.New(1024)
	if err != nil {
		log.Crit("db: failed to allocate eviction-candidate cache", "err", err)
	}
	return &DB{
		pool:    object.NewPool(params),
		keys:    dict.New(dict.BytesKeyDescriptor(), params.DictInitialSize),
		touched: touched,
		rnd:     rand.New(rand.NewSource(1)),
		params:  params,
	}
}

// Pool exposes the object pool so callers can build ValueObjects to
// store.
func (d *DB) Pool() *object.Pool { return d.pool }

// OnNotify registers a listener for keyspace notifications.
func (d *DB) OnNotify(l Listener) { d.listeners = append(d.listeners, l) }

func (d *DB) notify(event string, key []byte) {
	notifyCounter.WithLabelValues(event).Inc()
	for _, l := range d.listeners {
		l(event, key)
	}
}

func (d *DB) dirtyInc() {
	d.dirty++
	dirtyCounter.Inc()
}

// DirtyCount returns the number of writes since the last reset.
func (d *DB) DirtyCount() int64 { return d.dirty }

// ResetDirty clears the dirty counter (called after a save point).
func (d *DB) ResetDirty() { d.dirty = 0 }

// LookupRead returns key's object without updating access metadata
// beyond what read-time eviction policy requires (spec §4.6).
func (d *DB) LookupRead(key []byte) (*object.Object, bool) {
	v, ok := d.keys.Find(string(key))
	if !ok {
		return nil, false
	}
	o := v.(*object.Object)
	d.touched.Add(string(key), struct{}{})
	return o, true
}

// LookupWrite returns key's object for in-place mutation, returning
// kverrors.NotFound if absent.
func (d *DB) LookupWrite(key []byte) (*object.Object, error) {
	v, ok := d.keys.Find(string(key))
	if !ok {
		return nil, kverrors.New(kverrors.NotFound, "no such key")
	}
	return v.(*object.Object), nil
}

// AddKV inserts a brand-new key, returning kverrors.Exists if it's
// already present (spec §4.6).
func (d *DB) AddKV(key []byte, val *object.Object) error {
	if !d.keys.AddOrErr(string(key), val) {
		return kverrors.New(kverrors.Exists, "key already exists")
	}
	d.dirtyInc()
	d.notify("new", key)
	return nil
}

// Overwrite replaces key's value unconditionally, creating it if
// absent (spec §4.6).
func (d *DB) Overwrite(key []byte, val *object.Object) {
	d.keys.Replace(string(key), val)
	d.dirtyInc()
	d.notify("set", key)
}

// Delete removes key, returning false if it wasn't present.
func (d *DB) Delete(key []byte) bool {
	if !d.keys.Delete(string(key)) {
		return false
	}
	d.touched.Remove(string(key))
	d.dirtyInc()
	d.notify("del", key)
	return true
}

// SignalModified marks key as touched by an in-place mutation (e.g. an
// LPUSH on an existing list) without replacing the stored object
// itself (spec §4.6).
func (d *DB) SignalModified(key []byte, event string) {
	d.dirtyInc()
	d.notify(event, key)
}

// Exists reports whether key is present.
func (d *DB) Exists(key []byte) bool {
	_, ok := d.keys.Find(string(key))
	return ok
}

// Len returns the number of keys in the dataset.
func (d *DB) Len() int { return d.keys.Used() }

// RandomKey returns a uniformly random key (supplemented operation,
// not in spec.md, needed by a realistic CLI/RANDOMKEY command).
func (d *DB) RandomKey() ([]byte, bool) {
	k, _, ok := d.keys.RandomEntry(d.rnd)
	if !ok {
		return nil, false
	}
	return []byte(k.(string)), true
}

// Scan performs one cursor step over the keyspace (supplemented
// operation, wiring dict.Scan through to a key-only callback).
func (d *DB) Scan(cursor uint64, visit func(key []byte)) uint64 {
	return d.keys.Scan(cursor, func(k, _ interface{}) {
		visit([]byte(k.(string)))
	})
}

// EvictionCandidates returns up to n recently-touched keys, the
// sampling pool DEBUG-style eviction policies would draw from.
func (d *DB) EvictionCandidates(n int) [][]byte {
	keys := d.touched.Keys()
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k.(string))
	}
	return out
}
