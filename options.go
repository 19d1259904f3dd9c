package propdex

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/hupe1980/propdex/config"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	loadWorkers      int
	composites       [][]string
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		loadWorkers:      runtime.GOMAXPROCS(0),
	}
}

// Option configures a Registry.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &propdex.BasicMetricsCollector{}
//	r := propdex.New(propdex.WithMetricsCollector(metrics))
//	// ... use r ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := propdex.NewJSONLogger(slog.LevelInfo)
//	r := propdex.New(propdex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithLoadWorkers bounds the number of indexes Load fills concurrently.
// Values below 1 select GOMAXPROCS.
func WithLoadWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.loadWorkers = n
	}
}

// WithConfig applies a loaded configuration: logger, load workers and the
// composite declarations, which are registered by RegisterConfigured.
//
// The configuration is expected to be valid (see config.Config.Validate).
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		level, err := cfg.SlogLevel()
		if err != nil {
			level = slog.LevelInfo
		}
		o.logger = NewWriterLogger(os.Stderr, cfg.Log.Format, level)
		WithLoadWorkers(cfg.Load.Workers)(o)
		o.composites = cfg.Composites
	}
}
