// Package log provides structured logging for pipeline operations.
//
// It wraps rs/zerolog behind a small set of helpers so that every stage of
// the training pipeline emits events with a consistent shape: an operation
// name, data dimensions, and timing. The default logger writes to stderr;
// tests can swap in a buffer via SetOutput.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Attribute keys shared across the pipeline so that log consumers can rely
// on a stable schema.
const (
	OperationKey  = "operation"
	ModelTypeKey  = "model_type"
	SamplesKey    = "n_samples"
	FeaturesKey   = "n_features"
	RunIDKey      = "run_id"
	ExperimentKey = "experiment"
	DurationMsKey = "duration_ms"
)

var (
	mu     sync.RWMutex
	logger = newDefault(os.Stderr)
)

func newDefault(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Logger returns the package-level zerolog logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a logger annotated with a component name.
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// SetOutput replaces the destination of the package-level logger.
// Intended for tests and for the CLI's console mode.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newDefault(w)
}

// SetLevel sets the global minimum level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// ConsoleMode switches the logger to zerolog's human-readable console writer.
func ConsoleMode() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Timed logs the duration of an operation at info level on the given logger.
// Usage: defer log.Timed(l, "fit")()
func Timed(l zerolog.Logger, operation string) func() {
	start := time.Now()
	return func() {
		l.Info().
			Str(OperationKey, operation).
			Int64(DurationMsKey, time.Since(start).Milliseconds()).
			Msg("operation complete")
	}
}
