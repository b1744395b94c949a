package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig holds configuration for the structured logger.
type LogConfig struct {
	Level       string // "debug", "info", "warn", "error"
	Format      string // "json" or "text"
	ServiceName string
	Environment string
}

// redactedPatterns lists attribute-key fragments whose values never belong
// in log output, matched case-insensitively as substrings. The launch page
// itself is public; the secrets here are infrastructure credentials such as
// the Redis password and collector auth material.
var redactedPatterns = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"bearer",
	"credential",
	"private",
}

// parseLevel maps a config string to a slog level. Unknown values fall back
// to info rather than erroring; log verbosity is not worth refusing to boot.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger builds the service logger with secret redaction and installs it
// as the slog default. Every entry carries the service name and environment.
func InitLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		opts.ReplaceAttr = redactSecrets
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = NewRedactingHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	slog.SetDefault(logger)
	return logger
}

// NewRedactingHandler wraps a JSON handler so sensitive attributes are
// scrubbed before they reach w. Any ReplaceAttr already present in opts
// runs first.
func NewRedactingHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	chained := opts.ReplaceAttr
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if chained != nil {
			a = chained(groups, a)
		}
		return redactSecrets(groups, a)
	}

	return slog.NewJSONHandler(w, opts)
}

// redactSecrets replaces the value of any attribute whose key matches a
// redacted pattern.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, pattern := range redactedPatterns {
		if strings.Contains(key, pattern) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// WithTraceID annotates logger with the active trace ID from ctx, when one
// exists, so entries can be correlated with exported spans.
func WithTraceID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return logger.With(slog.String("trace_id", traceID))
	}
	return logger
}
