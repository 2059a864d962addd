package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	// Reinitialize logger with test output
	logger = nil
	InitLogger(level, format)

	fn()

	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:  "info log",
			level: "info",
			logFn: func() {
				Info("synced repository")
			},
			contains: []string{"synced repository"},
		},
		{
			name:  "debug log with debug level",
			level: "debug",
			logFn: func() {
				Debug("checking package digest")
			},
			contains: []string{"checking package digest", "level=DEBUG"},
		},
		{
			name:  "debug log with info level",
			level: "info",
			logFn: func() {
				Debug("checking package digest")
			},
			excludes: []string{"checking package digest"},
		},
		{
			name:  "error log",
			level: "error",
			logFn: func() {
				Error("download failed")
			},
			contains: []string{"download failed", "level=ERROR"},
		},
		{
			name:  "warn log with fields",
			level: "warn",
			logFn: func() {
				Warn("skipping metadata entry", Fields{"type": "filelists", "status": 404})
			},
			contains: []string{"skipping metadata entry", "level=WARN", "type=filelists", "status=404"},
		},
		{
			name:  "formatted info with fields",
			level: "info",
			logFn: func() {
				InfofWithFields(Fields{"repo": "docker-ce"}, "fetched %d packages", 12)
			},
			contains: []string{"fetched 12 packages", "repo=docker-ce"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, not := range tt.excludes {
				assert.NotContains(t, out, not)
			}
		})
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Infof("cycle %d done", 1)
	})
	assert.Contains(t, out, `"msg":"cycle 1 done"`)
}
