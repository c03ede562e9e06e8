package layer

import (
	"context"
	"time"

	"github.com/deepnoodle-ai/synapse/slogger"
)

// DefaultBudget is the advisory per-layer soft timeout. Exceeding it logs
// a warning but the layer's result is still used; there is no preemption
// in a synchronous single-threaded pipeline.
const DefaultBudget = 500 * time.Millisecond

// Safe wraps a processor with the pipeline's only cross-cutting failure
// handling: panics and errors become absent plus a diagnostic, and calls
// are timed against the soft budget. Individual layers stay free of
// defensive recovery of their own.
func Safe(p Processor, budget time.Duration) Processor {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &safeProcessor{inner: p, budget: budget}
}

type safeProcessor struct {
	inner  Processor
	budget time.Duration
}

func (s *safeProcessor) Name() string {
	return s.inner.Name()
}

func (s *safeProcessor) Process(ctx context.Context, pctx *Context) (res *Result, err error) {
	logger := slogger.Ctx(ctx).With("layer", s.inner.Name())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("layer panicked", "panic", r)
			res, err = nil, nil
		}
	}()

	start := time.Now()
	res, perr := s.inner.Process(ctx, pctx)
	if elapsed := time.Since(start); elapsed > s.budget {
		logger.Warn("layer exceeded soft budget",
			"elapsed", elapsed.String(), "budget", s.budget.String())
	}
	if perr != nil {
		logger.Warn("layer failed, continuing without it", "error", perr)
		return nil, nil
	}
	return res, nil
}
