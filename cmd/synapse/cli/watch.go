package cli

import (
	"fmt"
	"os"
	"time"

	wontoncli "github.com/deepnoodle-ai/wonton/cli"
	"github.com/fsnotify/fsnotify"

	"github.com/deepnoodle-ai/synapse/hook"
	"github.com/deepnoodle-ai/synapse/session"
	"github.com/deepnoodle-ai/synapse/slogger"
	"github.com/deepnoodle-ai/synapse/squad"
)

// watchDebounce coalesces editor save bursts into one re-run.
const watchDebounce = 300 * time.Millisecond

func registerWatchCommand(app *wontoncli.App) {
	app.Command("watch").
		Description("Re-run the pipeline whenever .synapse or squads files change").
		Args("prompt?").
		Flags(
			wontoncli.String("agent", "a").Help("Simulate an active agent id"),
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

			state := &session.State{}
			if id := ctx.String("agent"); id != "" {
				state.ActiveAgent = &session.ActiveAgent{ID: id}
			}

			w := &ruleWatcher{
				root:   root,
				prompt: prompt,
				state:  state,
				full:   ctx.Bool("full"),
				logger: newLogger(),
			}
			if err := w.run(); err != nil {
				return wontoncli.Errorf("%v", err)
			}
			return nil
		})
}

// ruleWatcher re-renders the inspect report whenever rule files change.
type ruleWatcher struct {
	root   string
	prompt string
	state  *session.State
	full   bool
	logger slogger.Logger
}

func (w *ruleWatcher) run() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			w.logger.Debug("not watching", "dir", dir, "error", err)
		}
	}

	if err := w.render(); err != nil {
		return err
	}
	fmt.Println("\nWatching for changes. Ctrl-C to stop.")

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New squad directories need watching too
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			fmt.Print("\n--- change detected ---\n\n")
			if err := w.render(); err != nil {
				w.logger.Error("render failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// watchDirs lists the root, its cache dir excluded, and every squad
// .synapse directory.
func (w *ruleWatcher) watchDirs() []string {
	dirs := []string{w.root}
	discovery := squad.NewDiscovery(w.root, w.logger)
	dirs = append(dirs, discovery.SquadsDir())
	for _, s := range discovery.Scan() {
		dirs = append(dirs, s.Root)
	}
	return dirs
}

func (w *ruleWatcher) render() error {
	return runInspect(w.root, w.prompt, w.state, w.full)
}
