package layer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectCommands(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected []string
	}{
		{"single", "run *deploy now", []string{"deploy"}},
		{"multiple in order", "*review then *deploy", []string{"review", "deploy"}},
		{"case-insensitive dedup", "*Deploy and *deploy and *DEPLOY", []string{"deploy"}},
		{"hyphenated", "*fix-issue 42", []string{"fix-issue"}},
		{"digit lead rejected", "2*3 is 6", nil},
		{"none", "no commands here", nil},
		{"empty", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, DetectCommands(tc.prompt))
		})
	}
}

const commandsFile = `[*deploy] DEPLOY:
  0. Check CI status
  1. Tag the release
[*review] start with the diff
  then read the tests
[*noop]
`

func TestCommandsScenario(t *testing.T) {
	root := writeRoot(t, map[string]string{"commands": commandsFile})
	res, err := (&Commands{}).Process(context.Background(), newContext(t, root, "run *deploy now", nil))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, []string{"0. Check CI status", "1. Tag the release"}, res.Rules)
	require.Equal(t, []string{"deploy"}, res.Metadata.Commands)
}

func TestCommandsInlineContentKept(t *testing.T) {
	// Inline header content is part of the block unless it ends in a colon
	root := writeRoot(t, map[string]string{"commands": commandsFile})
	res, err := (&Commands{}).Process(context.Background(), newContext(t, root, "*review this", nil))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, []string{"start with the diff", "then read the tests"}, res.Rules)
}

func TestCommandsMultiplicity(t *testing.T) {
	root := writeRoot(t, map[string]string{"commands": commandsFile})
	// Blocks surface in prompt detection order, not file order
	res, err := (&Commands{}).Process(context.Background(), newContext(t, root, "*review then *deploy", nil))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, []string{
		"start with the diff", "then read the tests",
		"0. Check CI status", "1. Tag the release",
	}, res.Rules)
	require.Equal(t, []string{"review", "deploy"}, res.Metadata.Commands)
}

func TestCommandsAbsentCases(t *testing.T) {
	root := writeRoot(t, map[string]string{"commands": commandsFile})

	// No star-commands in the prompt
	res, err := (&Commands{}).Process(context.Background(), newContext(t, root, "plain prompt", nil))
	require.NoError(t, err)
	require.Nil(t, res)

	// Detected command with an empty block
	res, err = (&Commands{}).Process(context.Background(), newContext(t, root, "*noop", nil))
	require.NoError(t, err)
	require.Nil(t, res)

	// Detected command with no block at all
	res, err = (&Commands{}).Process(context.Background(), newContext(t, root, "*unknown", nil))
	require.NoError(t, err)
	require.Nil(t, res)

	// No commands file
	empty := writeRoot(t, nil)
	res, err = (&Commands{}).Process(context.Background(), newContext(t, empty, "*deploy", nil))
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestParseCommandBlocks(t *testing.T) {
	root := writeRoot(t, map[string]string{"commands": commandsFile})
	blocks := parseCommandBlocks(root + "/commands")
	require.Len(t, blocks, 3)
	require.Equal(t, []string{"0. Check CI status", "1. Tag the release"}, blocks["deploy"])
	require.Empty(t, blocks["noop"])
}
