package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // only dump on errors
	LevelStage               // driver + stage boundaries
	LevelDetail              // module loads
	LevelDebug               // everything
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelStage:
		return "stage"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "stage":
		return LevelStage, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|stage|detail|debug)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelStage:
		return scope <= ScopeStage
	case LevelDetail:
		return scope <= ScopeModule
	case LevelDebug:
		return true
	}
	// LevelError пишет только через дамп кольца
	return false
}
