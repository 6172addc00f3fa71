// Package config holds the tunables that drive encoding-conversion and
// sizing decisions across the value engine (spec §§3-4). Thresholds
// that bound byte sizes are expressed as datasize.ByteSize, matching
// the same datasize.ByteSize idiom used elsewhere in this codebase for
// byte-budget constants (e.g. a sharded bitmap store's shard limit).
package config

import "github.com/c2h5oh/datasize"

// AccessPolicy selects how ValueObject access metadata is interpreted.
type AccessPolicy int

const (
	AccessLRU AccessPolicy = iota
	AccessLFU
)

// Params bundles every engine-visible tunable. A zero Params is not
// usable; use Default() to get sane values matching redis defaults.
type Params struct {
	// object
	SharedIntegers     int64 // [0, SharedIntegers) integers use the shared pool
	InternShortStrings bool  // intern embedded short strings via a fastcache pool
	InternCacheBytes   datasize.ByteSize
	AccessPolicy       AccessPolicy

	// dict
	DictForcedLoadFactor int // growth ratio for can-resize=false; dict.New does not read it (each Dict starts at 5, see Dict.SetForcedRatio)
	DictInitialSize      int

	// quicklist
	ListFill          int // >0: max entries/node; <0 in [-5,-1]: size-class index
	ListCompressDepth int
	ListNodeSafety    datasize.ByteSize // absolute 8KiB hard cap

	// set
	MaxIntsetEntries int

	// hash
	MaxZiplistEntries int
	MaxZiplistValue   int

	// zset
	MaxZsetZiplistEntries int
	MaxZsetZiplistValue   int
}

func Default() Params {
	return Params{
		SharedIntegers:        10000,
		InternShortStrings:    true,
		InternCacheBytes:      4 * datasize.MB,
		AccessPolicy:          AccessLRU,
		DictForcedLoadFactor:  5,
		DictInitialSize:       4,
		ListFill:              -2, // 8KiB size class
		ListCompressDepth:     0,
		ListNodeSafety:        8 * datasize.KB,
		MaxIntsetEntries:      512,
		MaxZiplistEntries:     128,
		MaxZiplistValue:       64,
		MaxZsetZiplistEntries: 128,
		MaxZsetZiplistValue:   64,
	}
}

// FillByteBudget returns the byte budget for ListFill when it encodes a
// size class (fill in [-5,-1]), per the 5-step table in spec §3.3.
func FillByteBudget(fill int) (datasize.ByteSize, bool) {
	table := [5]datasize.ByteSize{4 * datasize.KB, 8 * datasize.KB, 16 * datasize.KB, 32 * datasize.KB, 64 * datasize.KB}
	if fill >= -5 && fill <= -1 {
		return table[-fill-1], true
	}
	return 0, false
}
