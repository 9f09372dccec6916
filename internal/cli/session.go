package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/internal/presentation/tui"
	"github.com/aretw0/cartwise/pkg/domain"
)

// RunSession starts or resumes a single session and, unless JSON output is
// requested, walks the user through its reviews.
func RunSession(app *App, opts RunOptions, data map[string]any) error {
	quiet := opts.JSON || opts.Headless
	if !quiet {
		tui.FprintBanner(opts.Stdout, cartwise.Version)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	out, err := openSession(sigCtx, app.Engine, opts, data)
	if err != nil {
		return err
	}
	app.Logger.Info("Session Active", "thread_id", out.ThreadID, "status", out.Status)

	if opts.JSON {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if !quiet {
		printSystemMessage(opts.Stdout, "Session '%s' active.", out.ThreadID)
	}

	r := cartwise.NewRunner()
	r.Input = NewInterruptibleReader(opts.Stdin, sigCtx.Done())
	r.Output = opts.Stdout
	r.Headless = opts.Headless
	if !opts.Headless {
		r.Renderer = tui.NewRenderer()
	}

	final, runErr := r.Run(sigCtx, app.Engine, out)
	if final == nil {
		final = out
	}
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(opts.Stdout, final, runErr, quiet, sigCtx.Signal())
	return handleExecutionError(runErr)
}

// openSession produces the first outcome to show: a new run, an explicit
// resume, or the pending review of an existing session.
func openSession(ctx context.Context, engine *cartwise.Engine, opts RunOptions, data map[string]any) (*domain.Outcome, error) {
	switch {
	case opts.Input != "":
		return engine.StartThread(ctx, opts.ThreadID, opts.Input)
	case data != nil:
		return engine.Resume(ctx, opts.ThreadID, data)
	default:
		cp, err := engine.Inspect(ctx, opts.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		return cp.Outcome(), nil
	}
}
