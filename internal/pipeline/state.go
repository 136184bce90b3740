package pipeline

import (
	"fmt"
	"time"

	"experimental/internal/diag"
)

// State is the position of a module in the pipeline.
type State uint8

const (
	Scanned State = iota + 1
	FlagsDetected
	Rewritten
	Rebuilt
	Compiled
	Rejected
)

func (s State) String() string {
	switch s {
	case Scanned:
		return "scanned"
	case FlagsDetected:
		return "flags-detected"
	case Rewritten:
		return "rewritten"
	case Rebuilt:
		return "rebuilt"
	case Compiled:
		return "compiled"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Step is one entry of a run's history.
type Step struct {
	State State
	// Feature and Phase are set for Rewritten steps; Phase is "tokens" or "tree".
	Feature string
	Phase   string
	Edits   int
	// Stage and Err are set for the Rejected step.
	Stage diag.Stage
	Err   error
	// Elapsed is the time spent since the previous step.
	Elapsed time.Duration
}

func (s Step) String() string {
	switch s.State {
	case Rewritten:
		return fmt.Sprintf("%s(%s/%s, %d edits)", s.State, s.Feature, s.Phase, s.Edits)
	case Rejected:
		return fmt.Sprintf("%s(%s)", s.State, s.Stage)
	}
	return s.State.String()
}
