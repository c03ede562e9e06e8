// Package manifest implements the declarative domain registry that backs the
// synapse rule pipeline.
//
// A manifest maps domain keys to rule sources. Each domain names a plain-text
// rule file plus the metadata that decides when the pipeline surfaces it:
// recall keywords, exclude patterns, and agent/workflow trigger ids. One
// manifest lives under each .synapse root, project-level or squad-level.
//
// Loading follows a strict never-fail contract: a missing, unreadable, or
// malformed manifest yields an empty registry and a diagnostic, never an
// error. The hook sits on the interactive prompt path and a broken manifest
// must degrade to "no rules", not to a failure the caller has to handle.
package manifest

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/deepnoodle-ai/synapse/slogger"
)

// MergeMode controls how a squad's domains combine with the base pipeline.
type MergeMode string

const (
	// MergeExtend appends the squad's rules after the base rules.
	MergeExtend MergeMode = "extend"

	// MergeOverride is parsed and surfaced but currently behaves exactly
	// like MergeExtend. Replace semantics were never defined upstream.
	MergeOverride MergeMode = "override"

	// MergeNone opts the squad out entirely; none of its domains load.
	MergeNone MergeMode = "none"
)

// ParseMergeMode interprets a merge mode value, defaulting to MergeExtend
// for anything unrecognized.
func ParseMergeMode(s string) MergeMode {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case MergeOverride:
		return MergeOverride
	case MergeNone:
		return MergeNone
	default:
		return MergeExtend
	}
}

// mergeModeSuffix marks the reserved domain key that smuggles a squad's
// merge mode into its manifest ({SQUAD_UPPER}_EXTENDS). It is translated
// into the Mode field at load time and never appears among Domains.
const mergeModeSuffix = "_EXTENDS"

// Domain is a named rule source declared in a manifest. Identity is the Key
// within its manifest; values are immutable once parsed.
type Domain struct {
	// Key is the domain's identifier, upper-snake by convention.
	Key string `json:"key" yaml:"-"`

	// File is the rule file path, relative to the manifest's .synapse root.
	File string `json:"file" yaml:"file"`

	// Recall lists keywords that pull this domain in when they appear in
	// the prompt text.
	Recall []string `json:"recall,omitempty" yaml:"recall"`

	// Exclude lists patterns that suppress recall for matching prompts.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude"`

	// AgentTrigger binds this domain to an active agent id.
	AgentTrigger string `json:"agentTrigger,omitempty" yaml:"agentTrigger"`

	// WorkflowTrigger binds this domain to an active workflow id.
	WorkflowTrigger string `json:"workflowTrigger,omitempty" yaml:"workflowTrigger"`

	// NonNegotiable marks always-on rules. Informational only; nothing in
	// the pipeline enforces it today.
	NonNegotiable bool `json:"nonNegotiable,omitempty" yaml:"nonNegotiable"`
}

// Manifest is the ordered domain registry for one .synapse root. The JSON
// tags exist so squad manifests round-trip through the discovery cache.
type Manifest struct {
	// Domains preserves manifest declaration order.
	Domains []*Domain `json:"domains"`

	// GlobalExclude patterns apply to every domain's recall matching.
	GlobalExclude []string `json:"globalExclude,omitempty"`

	// Mode is the squad merge mode translated out of the reserved
	// {SQUAD_UPPER}_EXTENDS key. Project-level manifests leave it at the
	// MergeExtend default and ignore it.
	Mode MergeMode `json:"mode,omitempty"`

	// ModeKey records the reserved key the mode came from, when present.
	ModeKey string `json:"modeKey,omitempty"`
}

// Empty returns a manifest with no domains and the default merge mode.
func Empty() *Manifest {
	return &Manifest{Mode: MergeExtend}
}

// Lookup finds a domain by key, case-insensitively. Returns nil if absent.
func (m *Manifest) Lookup(key string) *Domain {
	for _, d := range m.Domains {
		if strings.EqualFold(d.Key, key) {
			return d
		}
	}
	return nil
}

// ByAgentTrigger returns the first domain whose AgentTrigger equals id,
// case-insensitively. Behavior with duplicate triggers is undefined; the
// first declaration wins.
func (m *Manifest) ByAgentTrigger(id string) *Domain {
	if id == "" {
		return nil
	}
	for _, d := range m.Domains {
		if d.AgentTrigger != "" && strings.EqualFold(d.AgentTrigger, id) {
			return d
		}
	}
	return nil
}

// ByWorkflowTrigger returns the first domain whose WorkflowTrigger equals id,
// case-insensitively.
func (m *Manifest) ByWorkflowTrigger(id string) *Domain {
	if id == "" {
		return nil
	}
	for _, d := range m.Domains {
		if d.WorkflowTrigger != "" && strings.EqualFold(d.WorkflowTrigger, id) {
			return d
		}
	}
	return nil
}

// Keys returns the domain keys in declaration order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.Domains))
	for _, d := range m.Domains {
		keys = append(keys, d.Key)
	}
	return keys
}

// Parse loads a manifest from path. On any failure it logs a diagnostic and
// returns an empty manifest; it never returns an error.
func Parse(path string, logger slogger.Logger) *Manifest {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("manifest unreadable", "path", path, "error", err)
		}
		return Empty()
	}
	m, err := parseYAML(data)
	if err != nil {
		logger.Warn("manifest malformed", "path", path, "error", err)
		return Empty()
	}
	return m
}

// parseYAML decodes manifest YAML, preserving domain declaration order and
// translating the reserved merge-mode key into the Mode field.
func parseYAML(data []byte) (*Manifest, error) {
	var spec struct {
		Domains       yaml.MapSlice `yaml:"domains"`
		GlobalExclude []string      `yaml:"globalExclude"`
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	m := Empty()
	m.GlobalExclude = spec.GlobalExclude

	for _, item := range spec.Domains {
		key, ok := item.Key.(string)
		if !ok || key == "" {
			continue
		}
		d, err := decodeDomain(key, item.Value)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(strings.ToUpper(key), mergeModeSuffix) {
			m.Mode = ParseMergeMode(d.File)
			m.ModeKey = key
			continue
		}
		m.Domains = append(m.Domains, d)
	}
	return m, nil
}

// decodeDomain accepts either the object form ({file: ..., recall: [...]})
// or the string shorthand (value is the file path).
func decodeDomain(key string, value any) (*Domain, error) {
	d := &Domain{Key: key}
	switch v := value.(type) {
	case nil:
		// Bare key; fall through to the file default below.
	case string:
		d.File = v
	default:
		raw, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, d); err != nil {
			return nil, err
		}
	}
	if d.File == "" {
		d.File = strings.ToLower(key)
	}
	return d, nil
}

// MarshalJSON keeps cached manifests deterministic by always emitting the
// mode, even when it is the default.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type alias Manifest
	a := alias(*m)
	if a.Mode == "" {
		a.Mode = MergeExtend
	}
	return json.Marshal(&a)
}
