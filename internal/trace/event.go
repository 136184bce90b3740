package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
	KindHeartbeat                 // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // CLI commands, directory checks
	ScopeStage                   // pipeline stages: scan, detect, rewrite, compile
	ScopeModule                  // module loads in the runtime
	ScopeEdit                    // individual rewriter passes
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeStage:
		return "stage"
	case ScopeModule:
		return "module"
	case ScopeEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID (for concurrent loads)
	Name     string            // e.g. "detect", "module:pkg.mod"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
