package worker

import (
	"runtime"

	"github.com/gruntwork-io/partools/pkg/env"
	"github.com/gruntwork-io/partools/pkg/log"
)

// NumThreadsEnvName overrides the default number of workers.
const NumThreadsEnvName = "NUM_THREADS"

// DefaultWorkers returns the worker count used when none is given: the value of NUM_THREADS if it is a
// positive integer, twice the number of CPUs otherwise.
func DefaultWorkers() int {
	return env.GetPositiveIntEnv(NumThreadsEnvName, 2*runtime.NumCPU()) //nolint:mnd
}

// Option configures a Map.
type Option func(*options)

type options struct {
	classify      Classifier
	logger        log.Logger
	queueCapacity int
}

func newOptions(opts ...Option) *options {
	cfg := &options{
		classify: IsFatal,
		logger:   log.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithClassifier replaces IsFatal as the predicate deciding which errors abort the run.
func WithClassifier(classify Classifier) Option {
	return func(cfg *options) {
		if classify != nil {
			cfg.classify = classify
		}
	}
}

// WithQueueCapacity bounds the number of items waiting for a worker. Enumeration pauses while the
// input queue is full. The default is unbounded.
func WithQueueCapacity(capacity int) Option {
	return func(cfg *options) {
		cfg.queueCapacity = capacity
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(cfg *options) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
