// Package session models the read-only agent-framework state handed to the
// hook with each prompt. Who sets these fields is owned by the surrounding
// framework; the pipeline only reads them, and every field is optional.
package session

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// ActiveAgent identifies the agent persona currently driving the session.
type ActiveAgent struct {
	ID string `json:"id,omitempty"`
}

// ActiveWorkflow identifies the workflow in progress and its current phase.
type ActiveWorkflow struct {
	ID           string `json:"id,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
}

// ActiveTask identifies the task being executed.
type ActiveTask struct {
	ID           string `json:"id,omitempty"`
	Story        string `json:"story,omitempty"`
	ExecutorType string `json:"executor_type,omitempty"`
}

// ActiveSquad names the squad the session is operating under, if any.
type ActiveSquad struct {
	Name string `json:"name,omitempty"`
}

// State is the session object from the hook request. A zero State is valid
// and means "nothing active"; every layer treats absence as skip.
type State struct {
	ActiveAgent    *ActiveAgent    `json:"active_agent,omitempty"`
	ActiveWorkflow *ActiveWorkflow `json:"active_workflow,omitempty"`
	ActiveTask     *ActiveTask     `json:"active_task,omitempty"`
	ActiveSquad    *ActiveSquad    `json:"active_squad,omitempty"`
}

// Decode parses a session JSON object. Malformed input yields an empty
// state rather than an error; session problems must never fail the hook.
func Decode(raw json.RawMessage) *State {
	s := &State{}
	if len(raw) == 0 {
		return s
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return &State{}
	}
	return s
}

// AgentID returns the active agent id, or "" when no agent is active.
func (s *State) AgentID() string {
	if s == nil || s.ActiveAgent == nil {
		return ""
	}
	return s.ActiveAgent.ID
}

// WorkflowID returns the active workflow id, or "".
func (s *State) WorkflowID() string {
	if s == nil || s.ActiveWorkflow == nil {
		return ""
	}
	return s.ActiveWorkflow.ID
}

// WorkflowPhase returns the active workflow's current phase, or "".
func (s *State) WorkflowPhase() string {
	if s == nil || s.ActiveWorkflow == nil {
		return ""
	}
	return s.ActiveWorkflow.CurrentPhase
}

// TaskID returns the active task id, or "".
func (s *State) TaskID() string {
	if s == nil || s.ActiveTask == nil {
		return ""
	}
	return s.ActiveTask.ID
}

// SquadName returns the active squad name, or "".
func (s *State) SquadName() string {
	if s == nil || s.ActiveSquad == nil {
		return ""
	}
	return s.ActiveSquad.Name
}

// Environment variable overrides. The surrounding framework can pin session
// state through the environment when it launches the agent host; values fill
// only fields the hook request left unset.
const (
	EnvAgent   = "SYNAPSE_AGENT"
	EnvStoryID = "SYNAPSE_STORY_ID"
	EnvTaskID  = "SYNAPSE_TASK_ID"
	EnvSquad   = "SYNAPSE_SQUAD"
)

// ApplyEnvOverrides fills unset session fields from the environment.
func (s *State) ApplyEnvOverrides() {
	if v := os.Getenv(EnvAgent); v != "" && s.AgentID() == "" {
		s.ActiveAgent = &ActiveAgent{ID: v}
	}
	if v := os.Getenv(EnvTaskID); v != "" && s.TaskID() == "" {
		s.ActiveTask = &ActiveTask{ID: v}
	}
	if v := os.Getenv(EnvStoryID); v != "" && s.ActiveTask != nil && s.ActiveTask.Story == "" {
		s.ActiveTask.Story = v
	}
	if v := os.Getenv(EnvSquad); v != "" && s.SquadName() == "" {
		s.ActiveSquad = &ActiveSquad{Name: v}
	}
}

// agentMentionPattern recognizes @agent-id mentions, e.g. "@dev" or
// "@aios-master". Letters, digits, and hyphens after the leading letter.
var agentMentionPattern = regexp.MustCompile(`@([a-zA-Z][a-zA-Z0-9-]*)`)

// DetectAgent returns the first @agent mention in the prompt, lowercased,
// or "" when none is present. This is a development aid used by the inspect
// command; the hook path gates strictly on session state and never guesses.
func DetectAgent(prompt string) string {
	match := agentMentionPattern.FindStringSubmatch(prompt)
	if match == nil {
		return ""
	}
	return strings.ToLower(match[1])
}
