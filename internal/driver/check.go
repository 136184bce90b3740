package driver

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"experimental/internal/diag"
	"experimental/internal/observ"
	"experimental/internal/pipeline"
	"experimental/internal/source"
	"experimental/internal/trace"
)

type CheckOptions struct {
	Pipeline       *pipeline.Pipeline
	Jobs           int
	MaxDiagnostics int
	// Progress receives a queued event for every file, then a working and a
	// final event per file.
	Progress ProgressSink
	// Timer accumulates the step durations of every run.
	Timer *observ.Timer
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Unit
	Result  *pipeline.Result
	Bag     *diag.Bag
	Elapsed time.Duration
}

// CheckResult holds every file result in path order and the merged diagnostics.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []FileResult
	Bag     *diag.Bag
}

// Check rewrites and compiles every file named by paths in parallel, without
// executing any module. A failing file does not stop the others; only
// cancellation of ctx does.
func Check(ctx context.Context, paths []string, opts CheckOptions) (*CheckResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check")
	defer span.End("")

	units, err := Collect(paths)
	if err != nil {
		return nil, err
	}
	p := opts.Pipeline
	if p == nil {
		p = pipeline.New(pipeline.Options{})
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	progress := opts.Progress
	if progress == nil {
		progress = ChannelSink{}
	}
	for _, u := range units {
		progress.OnEvent(Event{File: u.Path, Status: StatusQueued})
	}

	fileSet := source.NewFileSet()
	results := make([]FileResult, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(units)), 1))
	for i, u := range units {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			progress.OnEvent(Event{File: u.Path, Status: StatusWorking})
			r := checkOne(gctx, p, fileSet, u, opts.MaxDiagnostics)
			if opts.Timer != nil && r.Result != nil {
				opts.Timer.Observe(r.Result.History)
			}
			status := StatusDone
			if r.Bag.HasErrors() {
				status = StatusError
			}
			progress.OnEvent(Event{File: u.Path, Status: status, Elapsed: r.Elapsed})
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	for _, r := range results {
		bag.Merge(r.Bag)
	}
	bag.Sort()
	return &CheckResult{FileSet: fileSet, Files: results, Bag: bag}, nil
}

func checkOne(ctx context.Context, p *pipeline.Pipeline, fileSet *source.FileSet, u Unit, maxDiagnostics int) (res FileResult) {
	start := time.Now()
	res = FileResult{Unit: u, Bag: diag.NewBag(maxDiagnostics)}
	defer func() { res.Elapsed = time.Since(start) }()

	id, err := fileSet.Load(u.Path)
	if err != nil {
		res.Bag.Add(diag.NewError(diag.LoadIO, source.Pos{Path: u.Path}, "failed to load file: "+err.Error()))
		return res
	}
	out, err := p.Run(ctx, &pipeline.ModuleSource{Name: u.Module, IsPackage: u.IsPackage, File: fileSet.Get(id)})
	res.Result = out
	if out != nil && out.Diags != nil {
		res.Bag.Merge(out.Diags)
	}
	res.Bag.AddError(err)
	return res
}
