package layer

import (
	"context"
	"os"

	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/slogger"
	"github.com/deepnoodle-ai/synapse/squad"
)

// Squads is L5: discovers squads and merges their domain contributions,
// namespaced per squad. The session's active squad is processed first;
// the rest follow in discovery order. A squad with merge mode none is
// skipped entirely, whatever else it declares.
type Squads struct{}

func (l *Squads) Name() string { return "squads" }

func (l *Squads) Process(ctx context.Context, pctx *Context) (*Result, error) {
	discovery := squad.NewDiscovery(pctx.Root, slogger.Ctx(ctx))
	if _, err := os.Stat(discovery.SquadsDir()); err != nil {
		return nil, nil
	}

	squads := squad.Prioritize(discovery.Discover(), pctx.Session.SquadName())
	if len(squads) == 0 {
		return nil, nil
	}

	var rules []string
	var domainsLoaded []string
	for _, s := range squads {
		if s.Mode() == manifest.MergeNone {
			continue
		}
		// extend and override currently behave identically: both append.
		// Replace semantics were never defined for override.
		if s.Manifest == nil {
			continue
		}
		for _, d := range s.Manifest.Domains {
			loaded := d.Load(s.Root)
			if len(loaded) == 0 {
				continue
			}
			rules = append(rules, loaded...)
			domainsLoaded = append(domainsLoaded, s.NamespaceKey(d.Key))
		}
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules:    rules,
		Metadata: Metadata{DomainsLoaded: domainsLoaded},
	}, nil
}
