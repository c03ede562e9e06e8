package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/synapse/slogger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest", `
domains:
  CONSTITUTION:
    file: constitution
    nonNegotiable: true
  GLOBAL: global
  AGENT_DEV:
    file: agent-dev
    agentTrigger: dev
    recall:
      - deploy
      - release
    exclude:
      - "*test*"
  WORKFLOW_SHIP:
    file: workflow-ship
    workflowTrigger: ship
globalExclude:
  - "ignore me"
`)

	m := Parse(path, slogger.NewDevNullLogger())
	require.Len(t, m.Domains, 4)

	// Declaration order is preserved
	require.Equal(t, []string{"CONSTITUTION", "GLOBAL", "AGENT_DEV", "WORKFLOW_SHIP"}, m.Keys())

	constitution := m.Lookup("constitution")
	require.NotNil(t, constitution)
	require.Equal(t, "constitution", constitution.File)
	require.True(t, constitution.NonNegotiable)

	// String shorthand sets the file directly
	global := m.Lookup("GLOBAL")
	require.NotNil(t, global)
	require.Equal(t, "global", global.File)

	dev := m.ByAgentTrigger("dev")
	require.NotNil(t, dev)
	require.Equal(t, "AGENT_DEV", dev.Key)
	require.Equal(t, []string{"deploy", "release"}, dev.Recall)
	require.Equal(t, []string{"*test*"}, dev.Exclude)

	ship := m.ByWorkflowTrigger("SHIP")
	require.NotNil(t, ship)
	require.Equal(t, "WORKFLOW_SHIP", ship.Key)

	require.Equal(t, []string{"ignore me"}, m.GlobalExclude)
	require.Equal(t, MergeExtend, m.Mode)
}

func TestParseManifestMergeMode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected MergeMode
	}{
		{"object form none", "domains:\n  ALPHA_EXTENDS:\n    file: none\n", MergeNone},
		{"string shorthand override", "domains:\n  ALPHA_EXTENDS: override\n", MergeOverride},
		{"invalid defaults to extend", "domains:\n  ALPHA_EXTENDS: bogus\n", MergeExtend},
		{"absent defaults to extend", "domains:\n  GLOBAL: global\n", MergeExtend},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "manifest", tc.body)
			m := Parse(path, nil)
			require.Equal(t, tc.expected, m.Mode)
			// The reserved key never surfaces as an ordinary domain
			require.Nil(t, m.Lookup("ALPHA_EXTENDS"))
		})
	}
}

func TestParseManifestNeverFails(t *testing.T) {
	m := Parse(filepath.Join(t.TempDir(), "missing"), nil)
	require.NotNil(t, m)
	require.Empty(t, m.Domains)
	require.Equal(t, MergeExtend, m.Mode)

	dir := t.TempDir()
	path := writeFile(t, dir, "manifest", "domains: [not, a, mapping\n")
	m = Parse(path, slogger.NewDevNullLogger())
	require.NotNil(t, m)
	require.Empty(t, m.Domains)
}

func TestDomainFileDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest", "domains:\n  CONTEXT:\n    recall: [context]\n")
	m := Parse(path, nil)
	d := m.Lookup("CONTEXT")
	require.NotNil(t, d)
	require.Equal(t, "context", d.File)
}

func TestLoadDomainFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "constitution", "  1. Respect user autonomy  \n\n2. Ship small\n\t\n")
	require.Equal(t, []string{"1. Respect user autonomy", "2. Ship small"}, LoadDomainFile(path))

	require.Nil(t, LoadDomainFile(filepath.Join(dir, "missing")))
	require.Nil(t, LoadDomainFile(writeFile(t, dir, "empty", "\n\n")))
}

func TestDomainLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agent-dev", "rule one\nrule two\n")
	d := &Domain{Key: "AGENT_DEV", File: "agent-dev"}
	require.Equal(t, []string{"rule one", "rule two"}, d.Load(dir))
}

func TestMatchKeywords(t *testing.T) {
	require.True(t, MatchKeywords("please run the DEPLOY now", []string{"deploy"}))
	require.True(t, MatchKeywords("database migration", []string{"nothing", "migrat"}))
	require.False(t, MatchKeywords("hello world", []string{"deploy"}))
	require.False(t, MatchKeywords("", []string{"deploy"}))
	require.False(t, MatchKeywords("hello", nil))
	require.False(t, MatchKeywords("hello", []string{"", "  "}))
}

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		global   []string
		domain   []string
		expected bool
	}{
		{"glob pattern matches", "run the test suite", nil, []string{"*test*"}, true},
		{"plain substring matches", "draft only please", []string{"draft"}, nil, true},
		{"case insensitive", "DRAFT ONLY", []string{"draft"}, nil, true},
		{"no match", "deploy to prod", []string{"draft"}, []string{"*test*"}, false},
		{"empty text", "", []string{"*"}, nil, false},
		{"bad pattern ignored", "anything", []string{"[unclosed"}, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, IsExcluded(tc.text, tc.global, tc.domain))
		})
	}
}

func TestUpperSnake(t *testing.T) {
	require.Equal(t, "AIOS_MASTER", UpperSnake("aios-master"))
	require.Equal(t, "DEV", UpperSnake(" dev "))
	require.Equal(t, "ALPHA_2", UpperSnake("alpha 2"))
	require.Equal(t, "", UpperSnake(""))
}
