// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey names a request-scoped value copied onto every log record
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyMethod    ContextKey = "method"
	ContextKeyPath      ContextKey = "path"
	ContextKeyClientIP  ContextKey = "client_ip"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeySaleID    ContextKey = "sale_id"

	// Trace correlation, filled from the active span when not set explicitly
	ContextKeyTraceID ContextKey = "trace_id"
	ContextKeySpanID  ContextKey = "span_id"
)

// contextKeys are lifted from the context in this order
var contextKeys = []ContextKey{
	ContextKeyRequestID,
	ContextKeyMethod,
	ContextKeyPath,
	ContextKeyClientIP,
	ContextKeyUserAgent,
	ContextKeySaleID,
	ContextKeyTraceID,
	ContextKeySpanID,
}

// Options configures a Logger
type Options struct {
	Level     string
	Format    string    // json, text
	Output    io.Writer // defaults to stdout
	AddSource bool

	// Attached to every record when set
	Service     string
	Version     string
	Environment string
}

// Logger is the process logger. The embedded *slog.Logger is what services
// and handlers receive.
type Logger struct {
	*slog.Logger
}

// SetupLogger builds a logger from the SERVICE_NAME, SERVICE_VERSION and
// APP_ENV environment and installs it as the slog default
func SetupLogger(level string, format string) *Logger {
	return Setup(Options{
		Level:       level,
		Format:      format,
		AddSource:   true,
		Service:     os.Getenv("SERVICE_NAME"),
		Version:     os.Getenv("SERVICE_VERSION"),
		Environment: os.Getenv("APP_ENV"),
	})
}

// Setup builds a logger from opts and installs it as the slog default
func Setup(opts Options) *Logger {
	l := New(opts)
	slog.SetDefault(l.Logger)
	return l
}

// New builds a logger: a JSON or pretty text handler wrapped with context
// extraction and secret sanitization
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	format := strings.ToLower(opts.Format)
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return replaceAttr(format, a)
		},
	}

	var h slog.Handler
	if format == "text" {
		h = NewPrettyTextHandler(out, handlerOpts)
	} else {
		h = slog.NewJSONHandler(out, handlerOpts)
	}
	h = NewContextHandler(h)
	h = NewSanitizationHandler(h)

	var attrs []slog.Attr
	if opts.Service != "" {
		attrs = append(attrs, slog.String("service_name", opts.Service))
	}
	if opts.Version != "" {
		attrs = append(attrs, slog.String("version", opts.Version))
	}
	if opts.Environment != "" {
		attrs = append(attrs, slog.String("env", opts.Environment))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	return &Logger{Logger: slog.New(h)}
}

// WithSaleID tags ctx so every record logged under it carries the sale id
func WithSaleID(ctx context.Context, saleID string) context.Context {
	return context.WithValue(ctx, ContextKeySaleID, saleID)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// contextAttrs returns the values of keys present on ctx, skipping keys the
// record already carries
func contextAttrs(ctx context.Context, present map[string]struct{}) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if _, ok := present[string(key)]; ok {
			continue
		}
		switch v := ctx.Value(key).(type) {
		case nil:
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(string(key), v))
			}
		default:
			attrs = append(attrs, slog.Any(string(key), v))
		}
	}
	return attrs
}

func replaceAttr(format string, a slog.Attr) slog.Attr {
	switch {
	case a.Key == slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	case a.Key == slog.LevelKey && format != "text":
		a.Key = "severity"
	case strings.HasSuffix(a.Key, "_ms"):
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Microseconds()) / 1000)
		}
	}
	return a
}
