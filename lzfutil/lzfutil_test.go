package lzfutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("abcdefgh"), 20)
	blob, ok := Compress(src)
	require.True(t, ok)

	out, ok := Decompress(blob, len(src))
	require.True(t, ok)
	require.Equal(t, src, out)
}

func TestCompressRejectsSmallInput(t *testing.T) {
	_, ok := Compress([]byte("short"))
	require.False(t, ok)
}

func TestCompressRejectsLowGain(t *testing.T) {
	src := make([]byte, MinCompressSize)
	for i := range src {
		src[i] = byte(i) // 48 distinct bytes: no repeat for snappy to exploit
	}
	_, ok := Compress(src)
	require.False(t, ok)
}
