// Package flags provides the flags shared by the partools commands.
package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/gruntwork-io/partools/internal/worker"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	// EnvVarPrefix is prepended to the environment variable names bound to the flags.
	EnvVarPrefix = "PARTOOLS_"

	LogLevelFlagName  = "log-level"
	LogFormatFlagName = "log-format"

	TimeoutFlagName      = "timeout"
	TermTimeoutFlagName  = "term-timeout"
	WorkersFlagName      = "workers"
	ProcessGroupFlagName = "process-group"
)

// EnvVars returns the environment variable names bound to the flag with the given name,
// e.g. `log-level` is bound to `PARTOOLS_LOG_LEVEL`.
func EnvVars(name string) []string {
	name = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))

	return []string{EnvVarPrefix + name}
}

// NewGlobalFlags returns the flags accepted before any command.
func NewGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LogLevelFlagName,
			EnvVars: EnvVars(LogLevelFlagName),
			Value:   log.DefaultLevel.String(),
			Usage:   fmt.Sprintf("Sets the logging level. Supported levels: %s.", log.AllLevels),
		},
		&cli.StringFlag{
			Name:    LogFormatFlagName,
			EnvVars: EnvVars(LogFormatFlagName),
			Value:   log.TextFormat,
			Usage:   fmt.Sprintf("Sets the log format. Supported formats: %s, %s.", log.TextFormat, log.JSONFormat),
		},
	}
}

// NewTimeoutFlag returns the flag bounding the run time of a child process.
func NewTimeoutFlag(dest *time.Duration, usage string) cli.Flag {
	return &cli.DurationFlag{
		Name:        TimeoutFlagName,
		Aliases:     []string{"t"},
		EnvVars:     EnvVars(TimeoutFlagName),
		Destination: dest,
		Value:       *dest,
		Usage:       usage,
	}
}

// NewTermTimeoutFlag returns the flag bounding the time a child process is given to exit after it was
// asked to terminate, before it is killed.
func NewTermTimeoutFlag(dest *time.Duration) cli.Flag {
	return &cli.DurationFlag{
		Name:        TermTimeoutFlagName,
		EnvVars:     EnvVars(TermTimeoutFlagName),
		Destination: dest,
		Value:       *dest,
		Usage:       "Time given to the command to exit after SIGTERM before it is killed.",
	}
}

// NewWorkersFlag returns the flag setting the number of commands run in parallel.
func NewWorkersFlag(dest *int) cli.Flag {
	return &cli.IntFlag{
		Name:        WorkersFlagName,
		Aliases:     []string{"j"},
		EnvVars:     append(EnvVars(WorkersFlagName), worker.NumThreadsEnvName),
		Destination: dest,
		Value:       *dest,
		Usage:       "Number of commands run in parallel. Defaults to twice the number of CPUs.",
	}
}

// NewProcessGroupFlag returns the flag running every child in its own process group, so that a timeout
// also stops the processes it spawned.
func NewProcessGroupFlag(dest *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        ProcessGroupFlagName,
		EnvVars:     EnvVars(ProcessGroupFlagName),
		Destination: dest,
		Usage:       "Signal the whole process group of a command when it times out.",
	}
}
