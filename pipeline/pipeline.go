// Package pipeline sequences the eight rule layers and concatenates their
// contributions into the final injected text block.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/deepnoodle-ai/synapse/layer"
	"github.com/deepnoodle-ai/synapse/slogger"
)

// Options configures a Runner.
type Options struct {
	// Layers overrides the standard L0-L7 set, mainly for tests.
	Layers []layer.Processor

	// Budget is the advisory per-layer soft timeout.
	Budget time.Duration
}

// Runner executes the layer pipeline for one prompt.
type Runner struct {
	layers []layer.Processor
	budget time.Duration
}

// New creates a Runner with the standard layers unless overridden.
func New(opts Options) *Runner {
	layers := opts.Layers
	if layers == nil {
		layers = layer.Pipeline()
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = layer.DefaultBudget
	}
	return &Runner{layers: layers, budget: budget}
}

// Result is the ordered set of layer outputs for one invocation.
type Result struct {
	Outputs []layer.Output
}

// Empty reports whether no layer contributed anything.
func (r *Result) Empty() bool {
	return len(r.Outputs) == 0
}

// Rules returns every contributed rule line in layer order, each layer's
// internal order preserved.
func (r *Result) Rules() []string {
	var rules []string
	for _, out := range r.Outputs {
		rules = append(rules, out.Result.Rules...)
	}
	return rules
}

// Text returns the final injected block: the layer-order concatenation of
// all rules, newline separated.
func (r *Result) Text() string {
	return strings.Join(r.Rules(), "\n")
}

// Run executes the layers strictly in ascending order, each under the
// safety wrapper, feeding accumulated outputs to later layers. Layers that
// contribute nothing are omitted from the result.
func (r *Runner) Run(ctx context.Context, pctx *layer.Context) *Result {
	logger := slogger.Ctx(ctx)
	result := &Result{}
	for i, l := range r.layers {
		res, err := layer.Safe(l, r.budget).Process(ctx, pctx)
		if err != nil || res == nil {
			continue
		}
		out := layer.Output{Index: i, Name: l.Name(), Result: res}
		result.Outputs = append(result.Outputs, out)
		pctx.Previous = append(pctx.Previous, out)
	}
	logger.Debug("pipeline complete",
		"layers", len(r.layers), "contributed", len(result.Outputs))
	return result
}
