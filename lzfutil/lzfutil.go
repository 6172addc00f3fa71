// Package lzfutil implements the LZF-compressor collaborator contract
// from spec §6 (Compress returning 0 on non-improving input, Decompress
// reporting ok/not-ok) on top of github.com/golang/snappy, the nearest
// real block compressor already used elsewhere in this codebase to
// compress historical state blocks. True LZF isn't available here;
// snappy's block format (explicit length
// prefix, single-shot Encode/Decode) maps directly onto the same
// calling convention quicklist needs for its per-node compression.
package lzfutil

import "github.com/golang/snappy"

// MinCompressSize mirrors the quicklist node minimum (spec §4.3.4): a
// node's seq is never compressed if it is below 48 bytes.
const MinCompressSize = 48

// MinGain is the minimum byte reduction compression must achieve to be
// worth keeping (spec §4.3.4: "or if LZF fails to reduce length by at
// least 8 bytes").
const MinGain = 8

// Compress returns the compressed form of src and true, or (nil, false)
// if src is too small or compression doesn't save enough bytes.
func Compress(src []byte) ([]byte, bool) {
	if len(src) < MinCompressSize {
		return nil, false
	}
	dst := snappy.Encode(nil, src)
	if len(src)-len(dst) < MinGain {
		return nil, false
	}
	return dst, true
}

// Decompress restores the original bytes from a Compress output of the
// given original length.
func Decompress(compressed []byte, origLen int) ([]byte, bool) {
	dst := make([]byte, 0, origLen)
	out, err := snappy.Decode(dst, compressed)
	if err != nil {
		return nil, false
	}
	return out, true
}
