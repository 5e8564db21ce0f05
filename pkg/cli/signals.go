package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is cancelled on the first
// SIGINT or SIGTERM. A second signal exits the process immediately.
// The returned stop function releases the signal handler.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}

		if sig, ok := <-sigChan; ok {
			slog.Warn("received second signal, exiting", "signal", sig.String())
			os.Exit(ExitRuntime)
		}
	}()

	stop := func() {
		signal.Stop(sigChan)
		cancel()
	}

	return ctx, stop
}
