package diag

import (
	"errors"
	"fmt"
	"strings"

	"experimental/internal/source"
)

// Stage names the pipeline step that produced an error.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageScan
	StageDetect
	StageRewrite
	StageHostCompile
	StageLoad
)

func (s Stage) String() string {
	switch s {
	case StageScan:
		return "scan"
	case StageDetect:
		return "detect"
	case StageRewrite:
		return "rewrite"
	case StageHostCompile:
		return "compile"
	case StageLoad:
		return "load"
	}
	return "unknown"
}

// StageError is implemented by every error of the taxonomy.
type StageError interface {
	error
	Stage() Stage
	Position() source.Pos
	FeatureName() string
	DiagCode() Code
}

// Relocatable errors carry an offset into an intermediate text until the pipeline
// maps it back to the original source.
type Relocatable interface {
	StageError
	Offset() (uint32, bool)
	SetPosition(source.Pos)
}

func formatStageError(pos source.Pos, stage Stage, feature, msg string) string {
	var sb strings.Builder
	if pos.Path != "" || pos.Line > 0 {
		sb.WriteString(pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(stage.String())
	if feature != "" {
		sb.WriteString(" [")
		sb.WriteString(feature)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	return sb.String()
}

// LexError reports malformed source text.
type LexError struct {
	Code Code
	Pos  source.Pos
	Msg  string
	// Off is the byte offset in the scanned text. Until Mapped is set, Pos
	// refers to that text rather than to the original source.
	Off    uint32
	Mapped bool
}

func (e *LexError) Error() string {
	return formatStageError(e.Pos, StageScan, "", e.Msg)
}
func (e *LexError) Stage() Stage               { return StageScan }
func (e *LexError) Position() source.Pos       { return e.Pos }
func (e *LexError) FeatureName() string        { return "" }
func (e *LexError) DiagCode() Code             { return e.Code }
func (e *LexError) Offset() (uint32, bool)     { return e.Off, !e.Mapped }
func (e *LexError) SetPosition(pos source.Pos) { e.Pos, e.Mapped = pos, true }

// UnknownFeatureError is returned when an opt-in import names a feature that does not exist.
type UnknownFeatureError struct {
	Module string
	Name   string
	Pos    source.Pos
	Known  []string
}

func (e *UnknownFeatureError) Error() string {
	msg := fmt.Sprintf("module %q requests unknown feature %q", e.Module, e.Name)
	if len(e.Known) > 0 {
		msg += " (known: " + strings.Join(e.Known, ", ") + ")"
	}
	return formatStageError(e.Pos, StageDetect, "", msg)
}
func (e *UnknownFeatureError) Stage() Stage         { return StageDetect }
func (e *UnknownFeatureError) Position() source.Pos { return e.Pos }
func (e *UnknownFeatureError) FeatureName() string  { return e.Name }
func (e *UnknownFeatureError) DiagCode() Code       { return DetUnknownFeature }

// SyntaxRewriteError is raised by a rewriter that meets a construct it cannot transform safely.
type SyntaxRewriteError struct {
	Code    Code
	Feature string
	Pos     source.Pos
	Msg     string
	Off     uint32
	Mapped  bool
}

// NewRewriteError builds an error positioned at off in the stage input.
func NewRewriteError(feature string, code Code, off uint32, format string, args ...any) *SyntaxRewriteError {
	return &SyntaxRewriteError{Code: code, Feature: feature, Off: off, Msg: fmt.Sprintf(format, args...)}
}

func (e *SyntaxRewriteError) Error() string {
	return formatStageError(e.Pos, StageRewrite, e.Feature, e.Msg)
}
func (e *SyntaxRewriteError) Stage() Stage               { return StageRewrite }
func (e *SyntaxRewriteError) Position() source.Pos       { return e.Pos }
func (e *SyntaxRewriteError) FeatureName() string        { return e.Feature }
func (e *SyntaxRewriteError) DiagCode() Code             { return e.Code }
func (e *SyntaxRewriteError) Offset() (uint32, bool)     { return e.Off, !e.Mapped }
func (e *SyntaxRewriteError) SetPosition(pos source.Pos) { e.Pos, e.Mapped = pos, true }

// HostCompileError wraps a failure of the host compiler on rewritten source.
// Pos points into the original source; Err keeps the compiler's own error.
type HostCompileError struct {
	Code Code
	Pos  source.Pos
	Msg  string
	// Features lists the active features, since any of them may have produced the text.
	Features []string
	Err      error
}

func (e *HostCompileError) Error() string {
	return formatStageError(e.Pos, StageHostCompile, strings.Join(e.Features, ","), e.Msg)
}
func (e *HostCompileError) Unwrap() error        { return e.Err }
func (e *HostCompileError) Stage() Stage         { return StageHostCompile }
func (e *HostCompileError) Position() source.Pos { return e.Pos }
func (e *HostCompileError) FeatureName() string  { return strings.Join(e.Features, ",") }
func (e *HostCompileError) DiagCode() Code       { return e.Code }

// FromError converts a taxonomy error into a Diagnostic.
func FromError(err error) (Diagnostic, bool) {
	var se StageError
	if !errors.As(err, &se) {
		return Diagnostic{}, false
	}
	return Diagnostic{
		Severity: SevError,
		Code:     se.DiagCode(),
		Message:  messageOf(se),
		Pos:      se.Position(),
		Stage:    se.Stage(),
		Feature:  se.FeatureName(),
	}, true
}

func messageOf(se StageError) string {
	switch e := se.(type) {
	case *LexError:
		return e.Msg
	case *SyntaxRewriteError:
		return e.Msg
	case *HostCompileError:
		return e.Msg
	case *UnknownFeatureError:
		return fmt.Sprintf("unknown feature %q", e.Name)
	}
	return se.Error()
}
