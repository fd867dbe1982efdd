package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"facet/internal/mir"
	"facet/internal/observ"
	"facet/internal/trace"
	"facet/internal/types"
)

// Options configures one optimization run.
type Options struct {
	// OptLevel selects which passes run. Level 0 disables everything,
	// level 1 and above enables CFG simplification, mir.SROAMinOptLevel
	// and above enables scalar replacement of aggregates.
	OptLevel int

	// Jobs caps the number of functions optimized concurrently.
	// Zero means GOMAXPROCS.
	Jobs int

	// Timer, when set, records per-phase durations.
	Timer *observ.Timer

	// Tracer, when set, receives pass and function events. Defaults to
	// the nop tracer.
	Tracer trace.Tracer
}

// OptimizeModule runs the optimization pipeline over every function of the
// module. Functions are independent, so they are processed concurrently.
// The module is validated before and after; an invalid input is rejected,
// an invalid output is a pass bug surfaced as an error.
func OptimizeModule(ctx context.Context, m *mir.Module, typesIn *types.Interner, opts Options) error {
	if m == nil || len(m.Funcs) == 0 {
		return nil
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}

	if err := mir.Validate(m, typesIn); err != nil {
		return fmt.Errorf("invalid input module: %w", err)
	}
	if opts.OptLevel < 1 {
		return nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("optimize")
	}
	tracer.Emit(&trace.Event{
		Kind:   trace.KindSpanBegin,
		Scope:  trace.ScopePass,
		Name:   "optimize",
		Detail: fmt.Sprintf("opt_level=%d funcs=%d", opts.OptLevel, len(m.Funcs)),
	})

	runSROA := mir.SROAEnabled(opts.OptLevel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(m.Funcs)))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			optimizeFunc(f, typesIn, runSROA, tracer)
			return nil
		})
	}
	err := g.Wait()

	tracer.Emit(&trace.Event{Kind: trace.KindSpanEnd, Scope: trace.ScopePass, Name: "optimize"})
	if opts.Timer != nil {
		opts.Timer.End(phase, fmt.Sprintf("%d funcs", len(m.Funcs)))
	}
	if err != nil {
		return err
	}

	if err := mir.Validate(m, typesIn); err != nil {
		return fmt.Errorf("module invalid after optimization: %w", err)
	}
	return nil
}

// optimizeFunc runs the per-function pipeline. CFG simplification brackets
// scalar replacement so the pass sees a compact body and its own nop
// cleanup is followed by another compaction.
func optimizeFunc(f *mir.Func, typesIn *types.Interner, runSROA bool, tracer trace.Tracer) {
	start := time.Now()
	localsBefore := len(f.Locals)

	mir.SimplifyCFG(f)
	if runSROA {
		mir.ScalarReplaceAggregates(f, typesIn)
		mir.SimplifyCFG(f)
	}

	tracer.Emit(&trace.Event{
		Kind:  trace.KindPoint,
		Scope: trace.ScopeFunc,
		Name:  "func:" + f.Name,
		Detail: fmt.Sprintf("locals %d -> %d in %s",
			localsBefore, len(f.Locals), time.Since(start).Round(time.Microsecond)),
	})
}
