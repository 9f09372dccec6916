package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/cartwise"
	"github.com/aretw0/cartwise/pkg/domain"
)

// errInterrupted is reported by InterruptibleReader once the signal fired.
var errInterrupted = errors.New("interrupted")

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	// Blocks until the user types a line.
	n, err = r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, errInterrupted)
}

// handleExecutionError maps user-initiated stops to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) || errors.Is(err, cartwise.ErrDetached) {
		return nil
	}
	return err
}

func logCompletion(w io.Writer, out *domain.Outcome, err error, quiet bool, sig os.Signal) {
	if quiet || out == nil {
		return
	}
	switch {
	case err == nil && out.Done():
		printSystemMessage(w, "Session '%s' finished.", out.ThreadID)
	case err == nil:
		printSystemMessage(w, "Session '%s' is %s.", out.ThreadID, out.Status)
	case errors.Is(err, cartwise.ErrDetached):
		printSystemMessage(w, "Session '%s' left at its %s review.", out.ThreadID, reviewKind(out))
	case isInterrupted(err):
		if sig == os.Interrupt {
			fmt.Fprintf(w, "[CTRL+C]\n")
		} else {
			fmt.Fprintf(w, "\n")
		}
		printSystemMessage(w, "Interrupted. Session '%s' can be resumed.", out.ThreadID)
	}
}

func reviewKind(out *domain.Outcome) domain.ReviewKind {
	if out.Review == nil {
		return ""
	}
	return out.Review.Kind
}
