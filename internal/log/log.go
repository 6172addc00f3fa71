// Package log provides the structured, leveled logger used throughout
// kvengine, in the same key/value call style as turbo-geth's own log
// package: log.Info("message", "key", value, "key2", value2).
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "????"
	}
}

var levelColor = map[Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
	LevelCrit:  color.New(color.FgHiRed, color.Bold),
}

// Logger writes leveled, key/value-annotated lines to an output stream.
// It is safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	color    bool
	ctx      []interface{}
}

var std = New(os.Stderr)

// New builds a Logger writing to w, auto-detecting whether w is a
// terminal (via mattn/go-isatty) to decide whether to colorize output,
// wrapping w in mattn/go-colorable so ANSI codes render on Windows too.
func New(w io.Writer, ctx ...interface{}) *Logger {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return &Logger{out: w, minLevel: LevelDebug, color: useColor, ctx: ctx}
}

// New returns a child logger with additional persistent context
// key/value pairs appended to every line it emits.
func (l *Logger) New(ctx ...interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{out: l.out, minLevel: l.minLevel, color: l.color, ctx: merged}
}

// SetLevel sets the minimum level that will actually be written.
func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = lvl
}

func (l *Logger) write(lvl Level, msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.minLevel {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000Z0700")
	levelStr := lvl.String()
	if l.color {
		levelStr = levelColor[lvl].Sprint(lvl.String())
	}
	fmt.Fprintf(l.out, "%s [%s] %s", ts, levelStr, msg)
	all := make([]interface{}, 0, len(l.ctx)+len(kv))
	all = append(all, l.ctx...)
	all = append(all, kv...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", all[i], all[i+1])
	}
	if len(all)%2 == 1 {
		fmt.Fprintf(l.out, " %v=<missing>", all[len(all)-1])
	}
	fmt.Fprintln(l.out)
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.write(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.write(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.write(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.write(LevelError, msg, kv) }

// Crit logs at the highest severity, with a caller frame (via
// go-stack/stack) appended, then terminates the process. This backs
// the requirement that corrupted-encoding and refcount-underflow
// assertions are fatal.
func (l *Logger) Crit(msg string, kv ...interface{}) {
	frame := ""
	if call := stack.Caller(1); true {
		frame = fmt.Sprintf("%+v", call)
	}
	l.write(LevelCrit, msg, append(kv, "at", frame))
	os.Exit(2)
}

func Debug(msg string, kv ...interface{}) { std.Debug(msg, kv...) }
func Info(msg string, kv ...interface{})  { std.Info(msg, kv...) }
func Warn(msg string, kv ...interface{})  { std.Warn(msg, kv...) }
func Error(msg string, kv ...interface{}) { std.Error(msg, kv...) }
func Crit(msg string, kv ...interface{})  { std.Crit(msg, kv...) }
func SetLevel(lvl Level)              { std.SetLevel(lvl) }
func With(ctx ...interface{}) *Logger { return std.New(ctx...) }
