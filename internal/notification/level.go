package notification

import (
	"fmt"
	"strings"
)

// Level controls how much detail a failure notification carries.
// The zero value is Verbose.
type Level int

const (
	// Verbose includes the exception summary and the full, chunked backtrace
	Verbose Level = iota
	// Compact includes the exception summary but no backtrace
	Compact
	// Minimal includes only the worker line and the payload
	Minimal
)

// DefaultLevel is used when no level (or an unknown one) is configured
const DefaultLevel = Verbose

// Levels lists every recognized level in declaration order
var Levels = []Level{Verbose, Compact, Minimal}

// ParseLevel converts a level name to a Level. Unknown names resolve to Verbose.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verbose":
		return Verbose
	case "compact":
		return Compact
	case "minimal":
		return Minimal
	default:
		return DefaultLevel
	}
}

// Valid reports whether l is one of the declared levels
func (l Level) Valid() bool {
	switch l {
	case Verbose, Compact, Minimal:
		return true
	default:
		return false
	}
}

// Normalize returns l, or DefaultLevel when l is out of range
func (l Level) Normalize() Level {
	if !l.Valid() {
		return DefaultLevel
	}
	return l
}

func (l Level) String() string {
	switch l {
	case Verbose:
		return "verbose"
	case Compact:
		return "compact"
	case Minimal:
		return "minimal"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.Normalize().String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails;
// unrecognized names decode as DefaultLevel.
func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}
