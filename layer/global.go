package layer

import (
	"context"
)

// Global is L1: the always-on global and context domains. Global rules come
// first, context rules second. Absent only when both files are empty.
type Global struct{}

func (l *Global) Name() string { return "global" }

func (l *Global) Process(ctx context.Context, pctx *Context) (*Result, error) {
	var rules []string
	var sources []string
	for _, key := range []string{"GLOBAL", "CONTEXT"} {
		d := lookupOrDefault(pctx.Manifest, key)
		loaded := d.Load(pctx.Root)
		if len(loaded) == 0 {
			continue
		}
		rules = append(rules, loaded...)
		sources = append(sources, key)
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules:    rules,
		Metadata: Metadata{Sources: sources},
	}, nil
}
