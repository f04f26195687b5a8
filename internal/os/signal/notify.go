package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// NotifyContext returns a copy of parent that is cancelled when one of the given signals arrives, with a
// ContextCanceledCause carrying that signal as the cancellation cause. Calling stop releases the signal
// registration; later signals are handled by the OS defaults again.
func NotifyContext(parent context.Context, sigs ...os.Signal) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			cancel(NewContextCanceledCause(sig))
		case <-done:
		case <-ctx.Done():
		}
	}()

	var once sync.Once

	stop = func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			cancel(nil)
		})
	}

	return ctx, stop
}
