package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// capture points the package logger at a buffer for one test.
func capture(t *testing.T, opts Options) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Output = buf
	Init(opts)
	t.Cleanup(func() { Init(Options{}) })
	return buf
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
	}{
		{"default is info", Options{}, false, true},
		{"debug opens everything", Options{Debug: true}, true, true},
		{"quiet keeps only errors", Options{Quiet: true}, false, false},
		{"quiet wins over debug", Options{Debug: true, Quiet: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.opts)

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantInfo {
				t.Errorf("warn logged = %v, want %v", got, tt.wantInfo)
			}
			if !strings.Contains(out, "error line") {
				t.Error("errors must be logged at every level")
			}
		})
	}
}

func TestJSONHandler(t *testing.T) {
	buf := capture(t, Options{JSON: true})

	Info("json line", "brand", "bmw")

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		t.Fatalf("expected a JSON object, got %q", line)
	}
	if !strings.Contains(line, `"json line"`) || !strings.Contains(line, `"brand"`) {
		t.Errorf("message or attribute missing from %q", line)
	}
}

func TestTextHandlerCarriesAttributes(t *testing.T) {
	buf := capture(t, Options{})

	Info("crawl starting", "pages", 25)

	out := buf.String()
	if !strings.Contains(out, "crawl starting") || !strings.Contains(out, "pages=25") {
		t.Errorf("message or attribute missing from %q", out)
	}
}

func TestWith(t *testing.T) {
	buf := capture(t, Options{})

	With("source", "otomoto").Info("scoped line")

	out := buf.String()
	if !strings.Contains(out, "scoped line") || !strings.Contains(out, "source=otomoto") {
		t.Errorf("With attributes missing from %q", out)
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	defer Init(Options{})

	Info("through custom logger")

	if !strings.Contains(buf.String(), "through custom logger") {
		t.Error("expected output through the custom logger")
	}
}

func TestInit_CustomLoggerOverridesOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	// Quiet would normally suppress Info; a custom logger wins.
	Init(Options{Quiet: true, Logger: slog.New(slog.NewTextHandler(buf, nil))})
	defer Init(Options{})

	Info("custom logger line")

	if !strings.Contains(buf.String(), "custom logger line") {
		t.Error("Options.Logger should override the level options")
	}
}
