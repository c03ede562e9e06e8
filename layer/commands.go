package layer

import (
	"context"
	"os"
	"regexp"
	"strings"
)

// Commands is L7: star-command detection. Tokens like *deploy in the prompt
// select named instruction blocks from the commands domain file. Blocks are
// emitted in the order commands first appear in the prompt, not the order
// they appear in the file.
type Commands struct{}

func (l *Commands) Name() string { return "commands" }

// starCommandPattern matches *word tokens: a leading letter followed by
// letters, digits, or hyphens. Like the AUTH heuristic, this is a plain
// token scan; "2*3" never matches but "*x-1" does.
var starCommandPattern = regexp.MustCompile(`\*([a-zA-Z][a-zA-Z0-9-]*)`)

// blockHeaderPattern matches [*command] block headers, optionally with
// inline content after the bracket.
var blockHeaderPattern = regexp.MustCompile(`^\[\*([a-zA-Z][a-zA-Z0-9-]*)\]\s*(.*)$`)

func (l *Commands) Process(ctx context.Context, pctx *Context) (*Result, error) {
	detected := DetectCommands(pctx.Prompt)
	if len(detected) == 0 {
		return nil, nil
	}

	d := lookupOrDefault(pctx.Manifest, "COMMANDS")
	blocks := parseCommandBlocks(d.Path(pctx.Root))
	if len(blocks) == 0 {
		return nil, nil
	}

	var rules []string
	var commands []string
	for _, name := range detected {
		block, ok := blocks[name]
		if !ok || len(block) == 0 {
			continue
		}
		rules = append(rules, block...)
		commands = append(commands, name)
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &Result{
		Rules:    rules,
		Metadata: Metadata{Commands: commands},
	}, nil
}

// DetectCommands returns the star-commands in the prompt, lowercased and
// deduplicated, ordered by first textual occurrence.
func DetectCommands(prompt string) []string {
	matches := starCommandPattern.FindAllStringSubmatch(prompt, -1)
	if matches == nil {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// parseCommandBlocks reads the commands file and splits it into named
// blocks. A [*command] header starts a block; inline content on the header
// line joins the block unless it ends in a colon (a label, not content).
// Subsequent non-header lines accumulate until the next header. Lines are
// trimmed and blanks dropped, matching the domain-file convention.
func parseCommandBlocks(path string) map[string][]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	blocks := make(map[string][]string)
	var current string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := blockHeaderPattern.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(m[1])
			if _, exists := blocks[current]; !exists {
				blocks[current] = nil
			}
			if inline := strings.TrimSpace(m[2]); inline != "" && !strings.HasSuffix(inline, ":") {
				blocks[current] = append(blocks[current], inline)
			}
			continue
		}
		if current != "" {
			blocks[current] = append(blocks[current], line)
		}
	}
	return blocks
}
