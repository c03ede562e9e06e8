// Package cli wires the synapse binary: the stdin/stdout hook itself plus
// the developer-facing inspect, watch, and cache commands.
package cli

import (
	"os"
	"time"

	wontoncli "github.com/deepnoodle-ai/wonton/cli"

	"github.com/deepnoodle-ai/synapse/slogger"
)

var (
	logLevel    string
	rootFlag    string
	timeoutFlag time.Duration
	budgetFlag  time.Duration
	app         *wontoncli.App
)

func Execute() {
	app = wontoncli.New("synapse").
		Description("Assembles injected rule context for coding-agent prompts").
		Version("1.0.0").
		GlobalFlags(
			wontoncli.String("log-level", "").
				Default("warn").
				Env("SYNAPSE_LOG_LEVEL").
				Help("Log level for stderr diagnostics (debug, info, warn, error)"),
			wontoncli.String("root", "").
				Env("SYNAPSE_ROOT").
				Help("Path to a .synapse directory (defaults to walking up from cwd)"),
		)

	registerHookCommand(app)
	registerInspectCommand(app)
	registerWatchCommand(app)
	registerCacheCommands(app)

	if err := app.Execute(); err != nil {
		if wontoncli.IsHelpRequested(err) {
			os.Exit(0)
		}
		os.Exit(wontoncli.GetExitCode(err))
	}
}

// parseGlobalFlags extracts global flag values from the command context.
func parseGlobalFlags(ctx *wontoncli.Context) {
	logLevel = ctx.String("log-level")
	rootFlag = ctx.String("root")
}

func newLogger() slogger.Logger {
	return slogger.New(slogger.LevelFromString(logLevel))
}
