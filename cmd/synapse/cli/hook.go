package cli

import (
	"context"
	"os"
	"time"

	wontoncli "github.com/deepnoodle-ai/wonton/cli"

	"github.com/deepnoodle-ai/synapse/hook"
)

// parseDuration interprets a flag value like "5s" or "250ms", falling back
// to fallback when empty or malformed.
func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func registerHookCommand(app *wontoncli.App) {
	app.Command("hook").
		Description("Run the prompt-submit hook: JSON request on stdin, envelope on stdout").
		NoArgs().
		Flags(
			wontoncli.String("timeout", "").
				Default("5s").
				Env("SYNAPSE_HOOK_TIMEOUT").
				Help("Hard top-level budget; on expiry the hook exits silently"),
			wontoncli.String("layer-budget", "").
				Default("500ms").
				Env("SYNAPSE_LAYER_BUDGET").
				Help("Advisory per-layer soft timeout (diagnostic only)"),
		).
		Run(func(ctx *wontoncli.Context) error {
			parseGlobalFlags(ctx)
			timeoutFlag = parseDuration(ctx.String("timeout"), hook.DefaultTimeout)
			budgetFlag = parseDuration(ctx.String("layer-budget"), 0)

			h := hook.New(hook.Options{
				Timeout:     timeoutFlag,
				LayerBudget: budgetFlag,
				Root:        rootFlag,
				Logger:      newLogger(),
			})
			// The hook must never signal failure to its caller: any
			// problem degrades to empty output and a zero exit.
			_ = h.Execute(context.Background(), os.Stdin, os.Stdout)
			return nil
		})
}
