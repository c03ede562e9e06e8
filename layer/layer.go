// Package layer implements the eight ordered processors (L0-L7) that
// assemble injected rule text for a prompt.
//
// Each layer consumes the prompt, the session state, the project manifest,
// and the accumulated results of earlier layers, and contributes an optional
// ordered list of rule lines. Layers run strictly in ascending order because
// the recall layer deduplicates against what earlier layers already
// surfaced. A layer signals "nothing to contribute" by returning (nil, nil);
// that is the expected path, not an error.
package layer

import (
	"context"
	"strings"

	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/session"
)

// Processor is the contract every layer implements. Process must be pure
// with respect to its inputs aside from filesystem reads, and must return
// (nil, nil) for expected absence of input rather than an error.
type Processor interface {
	// Name identifies the layer in diagnostics and inspect output.
	Name() string

	// Process computes the layer's contribution. A nil Result with a nil
	// error means the layer has nothing to contribute.
	Process(ctx context.Context, pctx *Context) (*Result, error)
}

// Context carries everything a layer may consult. It is built once per
// invocation and shared read-only across layers, except Previous, which the
// orchestrator extends as layers complete.
type Context struct {
	// Prompt is the raw user prompt text.
	Prompt string

	// Session is the agent-framework state for this prompt.
	Session *session.State

	// Root is the project's .synapse directory.
	Root string

	// Manifest is the project-level domain registry.
	Manifest *manifest.Manifest

	// Previous holds the outputs of layers that already ran.
	Previous []Output
}

// Result is a layer's contribution: rule lines in production order plus
// layer-specific metadata. Rules are never reordered after production.
type Result struct {
	Rules    []string
	Metadata Metadata
}

// Metadata carries layer-specific facts consumed by later layers and by
// the inspect command. Which fields are populated depends on the layer.
type Metadata struct {
	// Source is the primary domain key the layer surfaced.
	Source string

	// Sources lists additional domain keys, for layers that load several.
	Sources []string

	// NonNegotiable mirrors the constitution domain's manifest flag.
	// Informational only; nothing consults it downstream.
	NonNegotiable bool

	// AgentID is the active agent id the agent layer matched on.
	AgentID string

	// HasAuthority reports whether any agent rule line contains "AUTH",
	// case-insensitively. A crude substring heuristic: "AUTHOR" matches.
	HasAuthority bool

	// WorkflowID and Phase come from the workflow layer.
	WorkflowID string
	Phase      string

	// TaskID comes from the task layer.
	TaskID string

	// DomainsLoaded lists the domain keys actually loaded, namespaced for
	// squads. This is the dedup signal the recall layer consumes.
	DomainsLoaded []string

	// Commands lists star-commands that produced a block.
	Commands []string
}

// Output pairs a layer's pipeline position with its result.
type Output struct {
	Index  int
	Name   string
	Result *Result
}

// LoadedDomains collects the domain identifiers earlier layers surfaced,
// upper-snake normalized. The recall layer skips any domain already here.
func (c *Context) LoadedDomains() map[string]bool {
	loaded := make(map[string]bool)
	add := func(key string) {
		if key != "" {
			loaded[manifest.UpperSnake(key)] = true
		}
	}
	for _, out := range c.Previous {
		if out.Result == nil {
			continue
		}
		md := out.Result.Metadata
		add(md.Source)
		for _, s := range md.Sources {
			add(s)
		}
		if md.AgentID != "" {
			add("AGENT_" + md.AgentID)
		}
		if md.WorkflowID != "" {
			add("WORKFLOW_" + md.WorkflowID)
		}
		for _, k := range md.DomainsLoaded {
			add(k)
		}
	}
	return loaded
}

// lookupOrDefault resolves a manifest domain case-insensitively, falling
// back to a synthesized entry with the conventional file path when the
// manifest omits it.
func lookupOrDefault(m *manifest.Manifest, key string) *manifest.Domain {
	if m != nil {
		if d := m.Lookup(key); d != nil {
			return d
		}
	}
	return &manifest.Domain{Key: key, File: strings.ToLower(key)}
}

// Pipeline returns the eight layers in execution order.
func Pipeline() []Processor {
	return []Processor{
		&Constitution{},
		&Global{},
		&Agent{},
		&Workflow{},
		&Task{},
		&Squads{},
		&Recall{},
		&Commands{},
	}
}
