package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"experimental/internal/trace"
)

// setupTracing reads trace flags, falling back to the config file, and
// attaches the tracer to the command context. It returns a cleanup function.
func setupTracing(cmd *cobra.Command, e *env) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	if traceOutput == "" {
		traceOutput = e.cfg.TraceOutput()
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if levelStr == "" {
		levelStr = e.cfg.Trace.Level
	}
	modeStr, _ := root.PersistentFlags().GetString("trace-mode")
	ringSize, _ := root.PersistentFlags().GetInt("trace-ring-size")
	heartbeatInterval, _ := root.PersistentFlags().GetDuration("trace-heartbeat")

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// вывод без уровня означает stage
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelStage
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	mode := trace.ModeFor(traceOutput)
	if modeStr != "" {
		if mode, err = trace.ParseMode(modeStr); err != nil {
			return nil, fmt.Errorf("invalid trace mode: %w", err)
		}
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	tagged := trace.Tag(tracer, "run", e.runID)

	ctx := trace.WithTracer(cmd.Context(), tagged)
	cmd.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tagged, heartbeatInterval)
	}

	return func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}
