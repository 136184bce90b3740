// Package trace records the progress of module loads and pipeline stages.
//
// Tracing answers "where did the time go" and "which stage is stuck" questions
// that logs answer poorly: every pipeline stage and every module load opens a
// span, and spans nest by parent id.
//
// # Usage
//
//	xp run --trace=- --trace-level=stage main.py
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: writes events as they happen (file or stderr)
//   - RingTracer: keeps the last N events in memory for dumps after a failure
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only dumps on failure
//   - LevelStage: driver and pipeline stage boundaries
//   - LevelDetail: module loads
//   - LevelDebug: everything, including per-rewrite edit counts
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "detect", parentID)
//	defer span.End("")
package trace
