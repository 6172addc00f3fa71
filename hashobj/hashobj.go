// Package hashobj implements HashEngine (spec §3.2/§4.2's hash
// representation): a dual-encoding field->value map that starts as a
// PackedEntrySeq of alternating field/value entries and converts to a
// dict once it outgrows the configured thresholds.
package hashobj

import (
	"strconv"

	"github.com/ledgerwatch/kvengine/config"
	"github.com/ledgerwatch/kvengine/dict"
	"github.com/ledgerwatch/kvengine/kverrors"
	"github.com/ledgerwatch/kvengine/ziplist"
)

type Encoding int

const (
	EncZiplist Encoding = iota
	EncHashtable
)

// OwnershipFlag controls whether Set takes ownership of the caller's
// byte slice (TAKE_FIELD/TAKE_VALUE semantics, spec §4.2) or copies it.
type OwnershipFlag int

const (
	CopyField OwnershipFlag = iota
	TakeField
)

type Hash struct {
	enc    Encoding
	seq    *ziplist.Seq // alternating field, value, field, value...
	fields *dict.Dict

	params config.Params
}

func New(params config.Params) *Hash {
	return &Hash{enc: EncZiplist, seq: ziplist.New(), params: params}
}

func (h *Hash) Encoding() Encoding { return h.enc }

func (h *Hash) Len() int {
	if h.enc == EncZiplist {
		return h.seq.Len() / 2
	}
	return h.fields.Used()
}

func (h *Hash) convertToHashtable() {
	if h.enc == EncHashtable {
		return
	}
	d := dict.New(dict.BytesKeyDescriptor(), h.seq.Len()/2)
	all := h.seq.All()
	for i := 0; i+1 < len(all); i += 2 {
		d.AddOrErr(string(all[i]), append([]byte(nil), all[i+1]...))
	}
	h.fields = d
	h.seq = nil
	h.enc = EncHashtable
}

func (h *Hash) maybeConvert(field, value []byte) {
	if h.enc != EncZiplist {
		return
	}
	if h.seq.Len()/2 > h.params.MaxZiplistEntries ||
		len(field) > h.params.MaxZiplistValue || len(value) > h.params.MaxZiplistValue {
		h.convertToHashtable()
	}
}

func (h *Hash) findInSeq(field []byte) (ziplist.Cursor, ziplist.Cursor, bool) {
	n := h.seq.Len()
	for i := 0; i+1 < n; i += 2 {
		fc, ok := h.seq.Index(i)
		if !ok {
			break
		}
		if h.seq.Compare(fc, field) {
			vc, _ := h.seq.Index(i + 1)
			return fc, vc, true
		}
	}
	return 0, 0, false
}

// Set stores field=value, returning true if field is new (spec §4.2).
func (h *Hash) Set(field, value []byte, flag OwnershipFlag) bool {
	if flag == CopyField {
		field = append([]byte(nil), field...)
		value = append([]byte(nil), value...)
	}
	if h.enc == EncZiplist {
		if fc, vc, ok := h.findInSeq(field); ok {
			h.seq.DeleteAt(vc)
			h.seq.InsertAt(vc, value)
			_ = fc
			return false
		}
		h.seq.PushTail(field)
		h.seq.PushTail(value)
		h.maybeConvert(field, value)
		return true
	}
	_, inserted := h.fields.AddOrFind(string(field), value)
	if !inserted {
		h.fields.Replace(string(field), value)
	}
	return inserted
}

// Get returns field's value.
func (h *Hash) Get(field []byte) ([]byte, bool) {
	if h.enc == EncZiplist {
		_, vc, ok := h.findInSeq(field)
		if !ok {
			return nil, false
		}
		e, _ := h.seq.Get(vc)
		return e.Bytes(), true
	}
	v, ok := h.fields.Find(string(field))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (h *Hash) Exists(field []byte) bool {
	_, ok := h.Get(field)
	return ok
}

// Delete removes field, returning true if it was present.
func (h *Hash) Delete(field []byte) bool {
	if h.enc == EncZiplist {
		fc, vc, ok := h.findInSeq(field)
		if !ok {
			return false
		}
		h.seq.DeleteAt(vc)
		h.seq.DeleteAt(fc)
		return true
	}
	return h.fields.Delete(string(field))
}

// IncrBy adds delta to field's integer value, creating it at 0 first
// if absent (spec §4.2). Returns kverrors.NotInteger if the existing
// value isn't a canonical integer, or kverrors.Overflow on wraparound.
func (h *Hash) IncrBy(field []byte, delta int64) (int64, error) {
	cur, ok := h.Get(field)
	var base int64
	if ok {
		n, err := strconv.ParseInt(string(cur), 10, 64)
		if err != nil {
			return 0, kverrors.New(kverrors.NotInteger, "hash value is not an integer")
		}
		base = n
	}
	next := base + delta
	if (delta > 0 && next < base) || (delta < 0 && next > base) {
		return 0, kverrors.New(kverrors.Overflow, "increment would overflow")
	}
	h.Set(field, []byte(strconv.FormatInt(next, 10)), CopyField)
	return next, nil
}

// IncrByFloat adds delta to field's float value, creating it at 0
// first if absent.
func (h *Hash) IncrByFloat(field []byte, delta float64) (float64, error) {
	cur, ok := h.Get(field)
	var base float64
	if ok {
		f, err := strconv.ParseFloat(string(cur), 64)
		if err != nil {
			return 0, kverrors.New(kverrors.NotFloat, "hash value is not a float")
		}
		base = f
	}
	next := base + delta
	h.Set(field, []byte(strconv.FormatFloat(next, 'f', -1, 64)), CopyField)
	return next, nil
}

// ValueLength returns the byte length of field's value without
// materializing a copy.
func (h *Hash) ValueLength(field []byte) (int, bool) {
	v, ok := h.Get(field)
	if !ok {
		return 0, false
	}
	return len(v), true
}

// Fields returns every field name.
func (h *Hash) Fields() [][]byte {
	if h.enc == EncZiplist {
		all := h.seq.All()
		var out [][]byte
		for i := 0; i < len(all); i += 2 {
			out = append(out, all[i])
		}
		return out
	}
	var out [][]byte
	it := h.fields.NewSafeIterator()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, []byte(k.(string)))
	}
	it.Release()
	return out
}

// All returns every field/value pair.
func (h *Hash) All() map[string][]byte {
	out := make(map[string][]byte)
	if h.enc == EncZiplist {
		all := h.seq.All()
		for i := 0; i+1 < len(all); i += 2 {
			out[string(all[i])] = all[i+1]
		}
		return out
	}
	it := h.fields.NewSafeIterator()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		out[k.(string)] = v.([]byte)
	}
	it.Release()
	return out
}
