package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if parseFormat(" JSON ") != FormatJSON || parseFormat("console") != FormatConsole || parseFormat("xml") != FormatLegacy {
		t.Fatalf("unexpected format parsing")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "")
	t.Setenv("LOG_FILE", "/tmp/ignored.log")
	t.Setenv("LOG_CALLER", "true")

	o := OptionsFromEnv()
	if o.Level != zapcore.DebugLevel || o.Format != FormatJSON || o.Console || !o.Caller {
		t.Fatalf("unexpected options: %+v", o)
	}
	if o.FilePath != "" {
		t.Fatalf("file sink must be off by default, got %q", o.FilePath)
	}

	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	if got := OptionsFromEnv().FilePath; got != filepath.Join("logs", "chess-bot.log") {
		t.Fatalf("default log file = %q", got)
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.log")
	logger, err := New(Options{Level: zapcore.InfoLevel, Format: FormatJSON, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("Connected to server!", zap.String("session_id", "abc"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"Connected to server!"`) || !strings.Contains(out, `"session_id":"abc"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level")
	}
}

func TestInitFromEnv_ReplacesGlobal(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() { globalLogger = prev })

	dir := t.TempDir()
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_FILE", filepath.Join(dir, "bot.log"))
	t.Setenv("LOG_LEVEL", "info")
	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}
	if L() == prev {
		t.Fatalf("global logger not replaced")
	}
	L().Info("hello")
	Sync()
	if _, err := os.Stat(filepath.Join(dir, "bot.log")); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}
