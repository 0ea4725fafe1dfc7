// Package logging builds the logrus logger shared by the servers and the CLI
// and carries the correlation id of a request through its context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
)

type contextKey struct{}

// CorrelationField is the log field holding the request correlation id
const CorrelationField = "correlation_id"

// New creates a logger from the logging configuration. Unknown levels fall
// back to info. Patient identifying fields are redacted by a hook.
func New(cfg domain.LoggingConfig) *logrus.Logger {
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

	logger.SetOutput(output(cfg.Output))
	logger.AddHook(&PrivacyHook{})
	return logger
}

// output maps the configured destination. The MCP stdio transport owns
// stdout, so servers using it configure "stderr".
func output(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}

// WithCorrelationID stores id in the context
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// CorrelationID returns the id stored in the context, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromContext returns an entry tagged with the correlation id of ctx
func FromContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if id := CorrelationID(ctx); id != "" {
		entry = entry.WithField(CorrelationField, id)
	}
	return entry
}

// PrivacyHook redacts fields naming the animal or its owner, and truncates
// long string values such as raw report text.
type PrivacyHook struct{}

const (
	redacted       = "[REDACTED]"
	maxFieldLength = 1000
)

var sensitiveFields = []string{
	"password", "token", "secret",
	"nome", "tutor", "paciente", "proprietario",
}

// Levels implements logrus.Hook
func (h *PrivacyHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *PrivacyHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		entry.Data[key] = sanitizeField(key, value)
	}
	return nil
}

func sanitizeField(key string, value interface{}) interface{} {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitiveFields {
		if strings.Contains(lowerKey, pattern) {
			return redacted
		}
	}

	if str, ok := value.(string); ok && len(str) > maxFieldLength {
		return str[:maxFieldLength] + "... [TRUNCATED]"
	}
	return value
}
