package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	wontoncli "github.com/deepnoodle-ai/wonton/cli"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/deepnoodle-ai/synapse/hook"
	"github.com/deepnoodle-ai/synapse/layer"
	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/pipeline"
	"github.com/deepnoodle-ai/synapse/session"
	"github.com/deepnoodle-ai/synapse/slogger"
)

var (
	layerHeadStyle = color.New(color.FgCyan, color.Bold)
	ruleStyle      = color.New(color.FgWhite)
	metaStyle      = color.New(color.FgHiBlack)
	warnStyle      = color.New(color.FgYellow)
)

const previewWidth = 100

func registerInspectCommand(app *wontoncli.App) {
	app.Command("inspect").
		Description("Run the pipeline against a prompt and print a per-layer report").
		Args("prompt?").
		Flags(
			wontoncli.String("agent", "a").Help("Simulate an active agent id"),
			wontoncli.String("workflow", "w").Help("Simulate an active workflow id"),
			wontoncli.String("phase", "").Help("Simulate the workflow phase"),
			wontoncli.String("task", "t").Help("Simulate an active task id"),
			wontoncli.String("story", "").Help("Simulate the task story"),
			wontoncli.String("squad", "").Help("Simulate the active squad"),
			wontoncli.Bool("detect-agent", "").Help("Fill the agent from an @mention in the prompt"),
			wontoncli.Bool("full", "").Help("Print every rule line instead of previews"),
		).
		Run(func(ctx *wontoncli.Context) error {
			parseGlobalFlags(ctx)

			var prompt string
			if ctx.NArg() > 0 {
				prompt = ctx.Arg(0)
			}

			root := rootFlag
			if root == "" {
				var err error
				root, err = hook.FindRoot("")
				if err != nil {
					return wontoncli.Errorf("no %s directory found from cwd", hook.RootDirName)
				}
			}

			state := sessionFromFlags(ctx, prompt)
			return runInspect(root, prompt, state, ctx.Bool("full"))
		})
}

func sessionFromFlags(ctx *wontoncli.Context, prompt string) *session.State {
	state := &session.State{}
	agentID := ctx.String("agent")
	if agentID == "" && ctx.Bool("detect-agent") {
		agentID = session.DetectAgent(prompt)
	}
	if agentID != "" {
		state.ActiveAgent = &session.ActiveAgent{ID: agentID}
	}
	if id := ctx.String("workflow"); id != "" {
		state.ActiveWorkflow = &session.ActiveWorkflow{ID: id, CurrentPhase: ctx.String("phase")}
	}
	if id := ctx.String("task"); id != "" {
		state.ActiveTask = &session.ActiveTask{ID: id, Story: ctx.String("story")}
	}
	if name := ctx.String("squad"); name != "" {
		state.ActiveSquad = &session.ActiveSquad{Name: name}
	}
	state.ApplyEnvOverrides()
	return state
}

func runInspect(root, prompt string, state *session.State, full bool) error {
	logger := newLogger()
	goCtx := slogger.WithLogger(context.Background(), logger)

	pctx := &layer.Context{
		Prompt:   prompt,
		Session:  state,
		Root:     root,
		Manifest: manifest.Parse(filepath.Join(root, "manifest"), logger),
	}
	result := pipeline.New(pipeline.Options{}).Run(goCtx, pctx)

	fmt.Printf("Root: %s\n", root)
	fmt.Printf("Prompt: %s\n", preview(prompt))
	fmt.Printf("Session: %s\n\n", describeSession(state))

	if result.Empty() {
		warnStyle.Println("No layer contributed anything for this prompt.")
		return nil
	}

	for _, out := range result.Outputs {
		layerHeadStyle.Printf("L%d %-12s", out.Index, out.Name)
		metaStyle.Printf(" %d rule(s)%s\n", len(out.Result.Rules), describeMetadata(out.Result.Metadata))
		for _, rule := range out.Result.Rules {
			if full {
				ruleStyle.Printf("    %s\n", rule)
			} else {
				ruleStyle.Printf("    %s\n", preview(rule))
			}
		}
	}

	fmt.Printf("\nTotal: %d rule(s) across %d layer(s)\n",
		len(result.Rules()), len(result.Outputs))
	return nil
}

// preview truncates a line to a stable display width, accounting for
// wide runes.
func preview(s string) string {
	return runewidth.Truncate(s, previewWidth, "…")
}

func describeSession(state *session.State) string {
	var parts []string
	if id := state.AgentID(); id != "" {
		parts = append(parts, "agent="+id)
	}
	if id := state.WorkflowID(); id != "" {
		part := "workflow=" + id
		if phase := state.WorkflowPhase(); phase != "" {
			part += " phase=" + phase
		}
		parts = append(parts, part)
	}
	if id := state.TaskID(); id != "" {
		parts = append(parts, "task="+id)
	}
	if name := state.SquadName(); name != "" {
		parts = append(parts, "squad="+name)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func describeMetadata(md layer.Metadata) string {
	var parts []string
	if md.Source != "" {
		parts = append(parts, "source="+md.Source)
	}
	if len(md.Sources) > 0 {
		parts = append(parts, "sources="+strings.Join(md.Sources, ","))
	}
	if md.NonNegotiable {
		parts = append(parts, "non-negotiable")
	}
	if md.AgentID != "" {
		parts = append(parts, "agent="+md.AgentID)
	}
	if md.HasAuthority {
		parts = append(parts, "authority")
	}
	if md.WorkflowID != "" {
		parts = append(parts, "workflow="+md.WorkflowID)
	}
	if md.Phase != "" {
		parts = append(parts, "phase="+md.Phase)
	}
	if md.TaskID != "" {
		parts = append(parts, "task="+md.TaskID)
	}
	if len(md.DomainsLoaded) > 0 {
		parts = append(parts, "domains="+strings.Join(md.DomainsLoaded, ","))
	}
	if len(md.Commands) > 0 {
		parts = append(parts, "commands="+strings.Join(md.Commands, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, " ") + "]"
}
