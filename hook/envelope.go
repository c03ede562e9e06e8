package hook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Markers delimiting the injected block inside the envelope. Stable so the
// host can strip or locate injected rules reliably.
const (
	RulesOpenTag  = "<synapse-rules>"
	RulesCloseTag = "</synapse-rules>"
)

// HookEventName is the host-side event this hook responds to.
const HookEventName = "UserPromptSubmit"

type envelopePayload struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

type envelope struct {
	HookSpecificOutput envelopePayload `json:"hookSpecificOutput"`
}

// Envelope wraps assembled rule text in the stdout protocol: a single JSON
// object whose additionalContext carries the delimited rules block.
func Envelope(text string) ([]byte, error) {
	block := fmt.Sprintf("%s\n%s\n%s", RulesOpenTag, text, RulesCloseTag)
	return json.Marshal(envelope{
		HookSpecificOutput: envelopePayload{
			HookEventName:     HookEventName,
			AdditionalContext: block,
		},
	})
}

// ExtractRules pulls the rules block back out of an envelope. Returns the
// inner text and whether an envelope with a rules block was present.
func ExtractRules(data []byte) (string, bool) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return "", false
	}
	block := e.HookSpecificOutput.AdditionalContext
	start := strings.Index(block, RulesOpenTag)
	end := strings.LastIndex(block, RulesCloseTag)
	if start < 0 || end < 0 || end <= start {
		return "", false
	}
	inner := block[start+len(RulesOpenTag) : end]
	return strings.Trim(inner, "\n"), true
}
