// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Redacted replaces the value of any field the RedactHook matches.
const Redacted = "[REDACTED]"

// New creates a logger for cfg. Unknown levels fall back to info; the
// output may be stdout, stderr or a file path opened for appending.
func New(cfg domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)
	logger.AddHook(NewRedactHook())
	return logger, nil
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Discard returns a logger that drops everything, for tests and tools
// that only want errors on the command line.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// RedactHook scrubs answer vectors and credentials from log entries before
// they are formatted. Answers are clinical data and never reach a log sink.
type RedactHook struct {
	keys     map[string]bool
	patterns []string
}

// NewRedactHook creates the hook with the default field lists.
func NewRedactHook() *RedactHook {
	return &RedactHook{
		keys: map[string]bool{
			"answers":     true,
			"raw_answers": true,
			"values":      true,
		},
		patterns: []string{"password", "token", "secret", "authorization"},
	}
}

// Levels implements logrus.Hook
func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *RedactHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if h.sensitive(key) {
			entry.Data[key] = Redacted
		}
	}
	return nil
}

func (h *RedactHook) sensitive(key string) bool {
	lower := strings.ToLower(key)
	if h.keys[lower] {
		return true
	}
	for _, p := range h.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
