// Package logging builds the logrus loggers used for the diagnostic stream.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Option configures a logger.
type Option func(*logrus.Logger)

// WithOutput sets the logger output.
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithLevel sets the log level.
func WithLevel(level logrus.Level) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter logrus.Formatter) Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(formatter)
	}
}

// New creates a logger writing plain, timestamp-free lines to stderr unless
// overridden by opts.
func New(opts ...Option) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		DisableQuote:           true,
	})

	for _, opt := range opts {
		opt(logger)
	}

	return logger
}

// ParseLevel converts a level name to a logrus level, falling back to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
