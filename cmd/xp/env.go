package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"experimental/internal/cache"
	"experimental/internal/config"
	"experimental/internal/logs"
	"experimental/internal/metrics"
	"experimental/internal/pipeline"
	"experimental/internal/prof"
)

// env is what every subcommand shares, built once before it runs.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	runID    string
	metrics  *metrics.Metrics
	cache    *cache.Cache
	pipeline *pipeline.Pipeline
	maxDiags int
	color    bool
	cleanup  []func()
}

var current *env

func setupEnv(cmd *cobra.Command, _ []string) error {
	pf := cmd.Root().PersistentFlags()
	e := &env{}

	cfgPath, err := pf.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfgPath != "" {
		e.cfg, err = config.Load(cfgPath)
	} else {
		e.cfg, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	logLevel, _ := pf.GetString("log-level")
	if logLevel == "" {
		logLevel = e.cfg.Log.Level
	}
	e.log, e.runID, err = logs.New(logs.Options{Level: logLevel, Writer: cmd.ErrOrStderr(), Journal: e.cfg.Log.Journal})
	if err != nil {
		return err
	}
	if e.cfg.File != "" {
		e.log.Debug("config loaded", "path", e.cfg.File)
	}

	var profOpts prof.Options
	profOpts.CPU, _ = pf.GetString("cpu-profile")
	profOpts.Mem, _ = pf.GetString("mem-profile")
	profOpts.Trace, _ = pf.GetString("runtime-trace")
	if profOpts.Enabled() {
		session, err := prof.Start(profOpts)
		if err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
		e.cleanup = append(e.cleanup, func() {
			if err := session.Stop(); err != nil {
				e.log.Warn("profile write failed", "error", err)
			}
		})
	}

	cleanupTrace, err := setupTracing(cmd, e)
	if err != nil {
		return err
	}
	e.cleanup = append(e.cleanup, cleanupTrace)

	colorFlag, _ := pf.GetString("color")
	switch colorFlag {
	case "on":
		e.color = true
	case "off":
	case "auto":
		e.color = isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid color mode %q (expected auto|on|off)", colorFlag)
	}
	e.maxDiags, _ = pf.GetInt("max-diagnostics")

	if on, _ := pf.GetBool("metrics"); on {
		e.metrics = metrics.New()
		e.cleanup = append(e.cleanup, func() {
			if err := e.metrics.WriteText(cmd.ErrOrStderr()); err != nil {
				e.log.Warn("metrics dump failed", "error", err)
			}
		})
	}

	if noCache, _ := pf.GetBool("no-cache"); !noCache && e.cfg.CacheEnabled() {
		dir, err := e.cfg.CacheDir()
		if err == nil {
			e.cache, err = cache.Open(dir)
		}
		if err != nil {
			// без кэша всё работает, только медленнее
			e.log.Warn("compile cache disabled", "error", err)
			e.cache = nil
		}
	}

	e.pipeline = pipeline.New(pipeline.Options{
		CastFunctions:  e.cfg.Cast.Functions,
		Cache:          e.cache,
		Metrics:        e.metrics,
		Logger:         e.log,
		MaxDiagnostics: e.maxDiags,
	})
	current = e
	return nil
}

func teardownEnv(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	for i := len(current.cleanup) - 1; i >= 0; i-- {
		current.cleanup[i]()
	}
	current = nil
	return nil
}
