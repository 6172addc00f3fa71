package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("ignored")
	l.Info("also ignored")
	require.Empty(t, buf.String())

	l.Warn("shown", "k", "v")
	require.Contains(t, buf.String(), "WARN")
	require.Contains(t, buf.String(), "k=v")
}

func TestChildLoggerInheritsContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "component", "test")
	child := l.New("sub", "child")
	child.Info("hello")

	out := buf.String()
	require.True(t, strings.Contains(out, "component=test"))
	require.True(t, strings.Contains(out, "sub=child"))
}

func TestMissingValueMarked(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info("odd", "onlykey")
	require.Contains(t, buf.String(), "onlykey=<missing>")
}
