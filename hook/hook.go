// Package hook implements the process boundary of the injection pipeline:
// one JSON request on stdin, one JSON envelope on stdout, and a hard
// timeout as the last-resort safety net.
//
// The guiding contract is that the hook sits on the interactive prompt path
// and must never break or delay it. Every failure mode, from a missing
// .synapse root to a stuck pipeline, degrades to "write nothing and exit
// zero"; diagnostics go to stderr only.
package hook

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deepnoodle-ai/synapse/layer"
	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/pipeline"
	"github.com/deepnoodle-ai/synapse/session"
	"github.com/deepnoodle-ai/synapse/slogger"
)

// DefaultTimeout is the hard top-level budget. If the pipeline has not
// finished by then, the invocation contributes nothing for this prompt.
const DefaultTimeout = 5 * time.Second

// RootDirName is the per-project configuration directory.
const RootDirName = ".synapse"

// maxLoggedPrompt caps how much prompt text appears in diagnostics.
const maxLoggedPrompt = 1000

// Request is the JSON object the agent host writes to stdin. Unknown
// fields are ignored.
type Request struct {
	Prompt string `json:"prompt,omitempty"`

	// UserPrompt is an alternate field name some hosts send.
	UserPrompt string `json:"user_prompt,omitempty"`

	Session json.RawMessage `json:"session,omitempty"`
	CWD     string          `json:"cwd,omitempty"`
}

// PromptText returns the prompt, preferring the canonical field.
func (r *Request) PromptText() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.UserPrompt
}

// Options configures a hook execution.
type Options struct {
	// Timeout is the hard top-level budget; DefaultTimeout when zero.
	Timeout time.Duration

	// LayerBudget is the advisory per-layer soft timeout.
	LayerBudget time.Duration

	// Root overrides .synapse root resolution, mainly for the CLI.
	Root string

	// Logger receives diagnostics; never the hook's stdout.
	Logger slogger.Logger

	// Layers overrides the standard layer set, for tests.
	Layers []layer.Processor
}

// Hook runs the pipeline once per prompt.
type Hook struct {
	opts Options
}

// New creates a Hook.
func New(opts Options) *Hook {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	return &Hook{opts: opts}
}

// Execute reads one request from in, runs the pipeline, and writes the
// envelope to out. It returns an error for diagnostic purposes only; the
// caller must exit zero regardless, and nothing is ever written to out on
// failure.
func (h *Hook) Execute(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := h.opts.Logger
	ctx = slogger.WithLogger(ctx, logger)

	req, err := ReadRequest(in)
	if err != nil {
		logger.Warn("hook request unreadable", "error", err)
		return err
	}
	logger.Debug("hook request received",
		"prompt", truncate(req.PromptText(), maxLoggedPrompt), "cwd", req.CWD)

	root := h.opts.Root
	if root == "" {
		root, err = FindRoot(req.CWD)
		if err != nil {
			logger.Debug("no .synapse root, contributing nothing", "cwd", req.CWD)
			return nil
		}
	}

	state := session.Decode(req.Session)
	state.ApplyEnvOverrides()

	pctx := &layer.Context{
		Prompt:   req.PromptText(),
		Session:  state,
		Root:     root,
		Manifest: manifest.Parse(filepath.Join(root, "manifest"), logger),
	}
	runner := pipeline.New(pipeline.Options{
		Budget: h.opts.LayerBudget,
		Layers: h.opts.Layers,
	})

	// The pipeline itself is synchronous; running it in a goroutine exists
	// solely so the hard timeout can abandon it. Once the timeout fires,
	// no partial output is ever emitted.
	done := make(chan *pipeline.Result, 1)
	go func() {
		done <- runner.Run(ctx, pctx)
	}()

	select {
	case res := <-done:
		if res.Empty() {
			return nil
		}
		envelope, err := Envelope(res.Text())
		if err != nil {
			logger.Error("envelope encode failed", "error", err)
			return err
		}
		if _, err := out.Write(envelope); err != nil {
			logger.Error("envelope write failed", "error", err)
			return err
		}
		return nil
	case <-time.After(h.opts.Timeout):
		logger.Error("pipeline exceeded hard timeout", "timeout", h.opts.Timeout.String())
		return context.DeadlineExceeded
	case <-ctx.Done():
		logger.Warn("hook canceled", "error", ctx.Err())
		return ctx.Err()
	}
}

// ReadRequest decodes one hook request from r.
func ReadRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindRoot walks up from dir looking for the nearest .synapse directory.
func FindRoot(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, RootDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
