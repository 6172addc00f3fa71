// Package kverrors defines the error kinds produced by the core value
// engine (spec §7). Every engine operation that can fail returns one
// of these wrapped in an *Error, checkable with errors.Is against the
// package-level sentinels.
package kverrors

import "fmt"

// Kind identifies the class of failure, independent of the message.
type Kind int

const (
	_ Kind = iota
	WrongType
	NotFound
	Exists
	OutOfRange
	Overflow
	NotInteger
	NotFloat
	SyntaxError
	CorruptedEncoding
)

func (k Kind) String() string {
	switch k {
	case WrongType:
		return "WrongType"
	case NotFound:
		return "NotFound"
	case Exists:
		return "Exists"
	case OutOfRange:
		return "OutOfRange"
	case Overflow:
		return "Overflow"
	case NotInteger:
		return "NotInteger"
	case NotFloat:
		return "NotFloat"
	case SyntaxError:
		return "SyntaxError"
	case CorruptedEncoding:
		return "CorruptedEncoding"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value returned by the core. Kind carries
// the machine-checkable classification; Msg carries the human detail.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is lets errors.Is(err, kverrors.WrongType) work by comparing kinds,
// so callers can match on the sentinel kind constants directly without
// needing a distinct sentinel *Error per kind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// so Kind itself satisfies error and can be compared with errors.Is.
func (k Kind) Error() string { return k.String() }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Of(kind Kind) *Error { return &Error{Kind: kind} }

// OfKind reports whether err is an *Error of the given kind. Wrapped
// errors are not unwrapped; use errors.Is for those.
func OfKind(err error, kind Kind) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == kind
	}
	return false
}
