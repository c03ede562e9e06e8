package layer

import (
	"context"

	"github.com/deepnoodle-ai/synapse/manifest"
)

// Recall is L6: keyword-triggered domain injection. For every manifest
// domain carrying recall keywords, the domain loads when the prompt matches
// a keyword, unless an exclude pattern suppresses it or an earlier layer
// already surfaced the same domain. Exclusion is checked before keyword
// matching.
type Recall struct{}

func (l *Recall) Name() string { return "recall" }

func (l *Recall) Process(ctx context.Context, pctx *Context) (*Result, error) {
	if pctx.Prompt == "" || pctx.Manifest == nil {
		return nil, nil
	}
	loaded := pctx.LoadedDomains()

	var rules []string
	var domainsLoaded []string
	for _, d := range pctx.Manifest.Domains {
		if len(d.Recall) == 0 {
			continue
		}
		if manifest.IsExcluded(pctx.Prompt, pctx.Manifest.GlobalExclude, d.Exclude) {
			continue
		}
		if !manifest.MatchKeywords(pctx.Prompt, d.Recall) {
			continue
		}
		if loaded[manifest.UpperSnake(d.Key)] {
			continue
		}
		loadedRules := d.Load(pctx.Root)
		if len(loadedRules) == 0 {
			continue
		}
		rules = append(rules, loadedRules...)
		domainsLoaded = append(domainsLoaded, d.Key)
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules:    rules,
		Metadata: Metadata{DomainsLoaded: domainsLoaded},
	}, nil
}
