package layer

import (
	"context"
)

// Constitution is L0: the always-on project constitution. It loads
// unconditionally and is absent only when the constitution file is missing
// or empty.
type Constitution struct{}

func (l *Constitution) Name() string { return "constitution" }

func (l *Constitution) Process(ctx context.Context, pctx *Context) (*Result, error) {
	d := lookupOrDefault(pctx.Manifest, "CONSTITUTION")
	rules := d.Load(pctx.Root)
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules: rules,
		Metadata: Metadata{
			Source:        "CONSTITUTION",
			NonNegotiable: d.NonNegotiable,
		},
	}, nil
}
