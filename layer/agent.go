package layer

import (
	"context"
	"strings"
)

// Agent is L2: agent-scoped rules, active only when the session names an
// agent. The manifest domain whose agentTrigger matches the agent id is
// loaded; with duplicate triggers the first declaration wins and further
// matches are undefined behavior.
type Agent struct{}

func (l *Agent) Name() string { return "agent" }

func (l *Agent) Process(ctx context.Context, pctx *Context) (*Result, error) {
	agentID := pctx.Session.AgentID()
	if agentID == "" || pctx.Manifest == nil {
		return nil, nil
	}
	d := pctx.Manifest.ByAgentTrigger(agentID)
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
			Source:       strings.ToUpper(d.Key),
			AgentID:      agentID,
			HasAuthority: hasAuthority(rules),
		},
	}, nil
}

// hasAuthority reports whether any rule line contains "AUTH". Deliberately
// crude: "AUTHOR" also matches. Downstream consumers treat this as a hint,
// not a guarantee.
func hasAuthority(rules []string) bool {
	for _, rule := range rules {
		if strings.Contains(strings.ToUpper(rule), "AUTH") {
			return true
		}
	}
	return false
}
