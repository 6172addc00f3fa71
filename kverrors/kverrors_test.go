package kverrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsKind(t *testing.T) {
	err := New(WrongType, "operation against a key holding the wrong kind of value")
	require.True(t, errors.Is(err, WrongType))
	require.False(t, errors.Is(err, NotFound))
}

func TestOfKind(t *testing.T) {
	err := Of(Overflow)
	require.True(t, OfKind(err, Overflow))
	require.False(t, OfKind(err, SyntaxError))
	require.False(t, OfKind(nil, Overflow))
}

func TestErrorMessage(t *testing.T) {
	err := New(NotInteger, "value is not an integer: %q", "abc")
	require.Contains(t, err.Error(), "abc")
}
