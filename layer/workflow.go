package layer

import (
	"context"
	"strings"
)

// Workflow is L3: workflow-scoped rules, the workflow-trigger mirror of the
// agent layer. Adds the session's current phase to metadata, which may be
// empty.
type Workflow struct{}

func (l *Workflow) Name() string { return "workflow" }

func (l *Workflow) Process(ctx context.Context, pctx *Context) (*Result, error) {
	workflowID := pctx.Session.WorkflowID()
	if workflowID == "" || pctx.Manifest == nil {
		return nil, nil
	}
	d := pctx.Manifest.ByWorkflowTrigger(workflowID)
	if d == nil {
		return nil, nil
	}
	rules := d.Load(pctx.Root)
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules: rules,
		Metadata: Metadata{
			Source:     strings.ToUpper(d.Key),
			WorkflowID: workflowID,
			Phase:      pctx.Session.WorkflowPhase(),
		},
	}, nil
}
