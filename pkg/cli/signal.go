// Package cli holds process-level helpers for the cppcheck-junit command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// InterruptExitCode is the conventional 128+SIGINT status used when a
// second signal forces the process down.
const InterruptExitCode = 130

// SignalOptions configures SignalContext.
type SignalOptions struct {
	// GracePeriod is how long a second signal forces exit after the first.
	// Zero means until the returned cancel func is called.
	GracePeriod time.Duration
	Logger      *zap.Logger

	// Overrides for tests.
	signals chan os.Signal
	exit    func(int)
}

// SignalContext returns a child of parent cancelled on SIGINT/SIGTERM.
// A second signal within the grace period exits with InterruptExitCode.
//
//	ctx, cancel := cli.SignalContext(context.Background(), cli.SignalOptions{GracePeriod: 5 * time.Second})
//	defer cancel()
func SignalContext(parent context.Context, opts SignalOptions) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exit := opts.exit
	if exit == nil {
		exit = os.Exit
	}
	sigs := opts.signals
	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	}

	go func() {
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			logger.Warn("interrupt received, stopping", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
			return
		}

		var expire <-chan time.Time
		if opts.GracePeriod > 0 {
			expire = time.After(opts.GracePeriod)
		}
		select {
		case <-sigs:
			logger.Error("second interrupt, exiting")
			exit(InterruptExitCode)
		case <-expire:
		}
	}()

	return ctx, cancel
}
