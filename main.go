package main

import (
	"context"
	"os"

	"github.com/gruntwork-io/partools/cli"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/signal"
	"github.com/gruntwork-io/partools/internal/util"
	"github.com/gruntwork-io/partools/pkg/log"
)

// The main entrypoint for partools
func main() {
	logger := log.New(log.WithOutput(os.Stderr))

	defer errors.Recover(checkForErrorsAndExit(logger))

	ctx, stop := setupContext(logger)
	defer stop()

	app := cli.NewApp(logger, os.Stdout, os.Stderr)
	err := app.RunContext(ctx, os.Args)

	stop()
	checkForErrorsAndExit(logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		// exit with the underlying error code
		exitCode, exitCodeErr := util.GetExitCode(err)
		if exitCodeErr != nil || exitCode == 0 {
			exitCode = 1
		}

		os.Exit(exitCode)
	}
}

// setupContext returns the root context, carrying the logger and cancelled by the interrupt signals.
func setupContext(logger log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), signal.InterruptSignals...)

	return log.ContextWithLogger(ctx, logger), stop
}
