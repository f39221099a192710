package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "json_renames_level",
			format: "json",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, `"severity":"INFO"`)
				assert.Contains(t, out, `"msg":"sale committed"`)
				assert.NotContains(t, out, `"level"`)
			},
		},
		{
			name:   "unknown_format_falls_back_to_json",
			format: "xml",
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "{"))
			},
		},
		{
			name:   "text_is_human_readable",
			format: "text",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "INFO")
				assert.Contains(t, out, "sale committed")
				assert.False(t, strings.HasPrefix(out, "{"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Options{Level: "info", Format: tt.format, Output: &buf})

			l.Info("sale committed")

			tt.check(t, buf.String())
		})
	}
}

func TestNew_LevelSelection(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
		warnSeen  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"", false, true, true},
		{"warning", false, false, true},
		{"error", false, false, false},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Options{Level: tt.level, Format: "json", Output: &buf})

			l.Debug("debug line")
			l.Info("info line")
			l.Warn("warn line")

			out := buf.String()
			assert.Equal(t, tt.debugSeen, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.infoSeen, strings.Contains(out, "info line"))
			assert.Equal(t, tt.warnSeen, strings.Contains(out, "warn line"))
		})
	}
}

func TestNew_GlobalFieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		Service:     "jewelry-api",
		Version:     "1.2.3",
		Environment: "test",
	})

	ctx := context.WithValue(context.Background(), ContextKeyRequestID, "req-9")
	ctx = WithSaleID(ctx, "sale-1")
	l.InfoContext(ctx, "sale committed", slog.Duration("elapsed_ms", 1500000))

	out := decode(t, &buf)
	assert.Equal(t, "jewelry-api", out["service_name"])
	assert.Equal(t, "1.2.3", out["version"])
	assert.Equal(t, "test", out["env"])
	assert.Equal(t, "req-9", out["request_id"])
	assert.Equal(t, "sale-1", out["sale_id"])
	assert.Equal(t, 1.5, out["elapsed_ms"])
}

func TestSetup_InstallsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	l := Setup(Options{Level: "info", Format: "json", Output: &buf})
	require.NotNil(t, l.Logger)

	slog.Info("through default")
	assert.Contains(t, buf.String(), "through default")
}
