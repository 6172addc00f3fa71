package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := Default()
	require.Equal(t, int64(10000), p.SharedIntegers)
	require.True(t, p.InternShortStrings)
	require.Equal(t, -2, p.ListFill)
}

func TestFillByteBudgetNegative(t *testing.T) {
	b, ok := FillByteBudget(-1)
	require.True(t, ok)
	require.EqualValues(t, 4*1024, b)

	b, ok = FillByteBudget(-5)
	require.True(t, ok)
	require.EqualValues(t, 64*1024, b)
}

func TestFillByteBudgetPositiveIsCountBased(t *testing.T) {
	_, ok := FillByteBudget(32)
	require.False(t, ok)
}
