package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/cartwise/internal/config"
)

// RunOptions contains all the configuration for the start and resume commands.
type RunOptions struct {
	ConfigPath string
	Input      string // New request; empty when resuming
	ThreadID   string
	Data       string // Raw JSON resume data
	Headless   bool
	JSON       bool
	Debug      bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Execute handles the start and resume commands: it loads the configuration,
// builds the engine and hands over to RunSession.
func Execute(opts RunOptions) error {
	if opts.Input == "" && opts.ThreadID == "" {
		return errors.New("a request or a thread id is required")
	}
	if opts.Input != "" && opts.Data != "" {
		return errors.New("--data only applies when resuming")
	}

	var data map[string]any
	if opts.Data != "" {
		if err := json.Unmarshal([]byte(opts.Data), &data); err != nil {
			return fmt.Errorf("error parsing --data JSON: %w", err)
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return RunSession(app, opts, data)
}
