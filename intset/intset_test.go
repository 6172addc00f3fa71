package intset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWidthPromotion(t *testing.T) {
	s := New()
	require.Equal(t, Width16, s.Width())

	s.Add(127)
	s.Add(-128)
	require.Equal(t, Width16, s.Width())

	s.Add(32767)
	s.Add(-32768)
	require.Equal(t, Width16, s.Width())

	s.Add(2147483647)
	require.Equal(t, Width32, s.Width())

	s.Add(-2147483648)
	require.Equal(t, Width32, s.Width())

	s.Add(9223372036854775807)
	require.Equal(t, Width64, s.Width())

	s.Add(-9223372036854775808)
	require.Equal(t, Width64, s.Width())
}

func TestWidthNeverDemotes(t *testing.T) {
	s := New()
	s.Add(9223372036854775807)
	require.Equal(t, Width64, s.Width())

	s.Remove(9223372036854775807)
	require.Equal(t, Width64, s.Width())
	require.Equal(t, 0, s.Len())
}

func TestSortedUnique(t *testing.T) {
	s := New()
	for _, v := range []int64{5, 3, 9, 3, 1, 5} {
		s.Add(v)
	}
	require.Equal(t, []int64{1, 3, 5, 9}, s.Values())
}

func TestContainsAndRemove(t *testing.T) {
	s := New()
	s.Add(10)
	s.Add(20)
	require.True(t, s.Contains(10))
	require.False(t, s.Contains(15))

	require.True(t, s.Remove(10))
	require.False(t, s.Contains(10))
	require.False(t, s.Remove(10))
}

func TestByteLenMatchesHeaderPlusWidth(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Add(3)
	require.Equal(t, headerLen+3*int(Width16), s.ByteLen())

	s.Add(2147483647)
	require.Equal(t, headerLen+4*int(Width32), s.ByteLen())
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := New()
	for _, v := range []int64{5, 3, 9, -9223372036854775808, 2147483647} {
		s.Add(v)
	}
	buf := s.Serialize()
	require.Len(t, buf, s.ByteLen())

	reloaded, err := Deserialize(buf)
	require.NoError(t, err)
	require.Equal(t, s.Width(), reloaded.Width())
	require.Equal(t, s.Values(), reloaded.Values())
	require.Equal(t, s.ByteLen(), reloaded.ByteLen())
}

func TestDeserializeRejectsTruncated(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3})
	require.Error(t, err)

	s := New()
	s.Add(1)
	s.Add(2)
	buf := s.Serialize()
	_, err = Deserialize(buf[:len(buf)-1])
	require.Error(t, err)
}

func TestMinMax(t *testing.T) {
	s := New()
	_, ok := s.Min()
	require.False(t, ok)

	s.Add(5)
	s.Add(-3)
	s.Add(100)

	min, ok := s.Min()
	require.True(t, ok)
	require.Equal(t, int64(-3), min)

	max, ok := s.Max()
	require.True(t, ok)
	require.Equal(t, int64(100), max)
}
