package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// L returns the process logger. It is a no-op until InitFromEnv succeeds.
func L() *zap.Logger { return globalLogger }

// Sync flushes the process logger. Sync errors on stdout are expected and dropped.
func Sync() { _ = globalLogger.Sync() }

// Format selects the line encoder.
type Format string

const (
	FormatLegacy  Format = "legacy" // "2006-01-02 15:04:05 | INFO | caller | msg | {fields}"
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Options describes where and how log lines are written.
type Options struct {
	Level    zapcore.Level
	Format   Format
	Console  bool
	FilePath string // empty disables the file sink
	Caller   bool
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE, LOG_FILE and LOG_CALLER.
func OptionsFromEnv() Options {
	o := Options{
		Level:   parseLevel(os.Getenv("LOG_LEVEL")),
		Format:  parseFormat(os.Getenv("LOG_FORMAT")),
		Console: envBool("LOG_TO_CONSOLE", true),
		Caller:  envBool("LOG_CALLER", false),
	}
	if envBool("LOG_TO_FILE", false) {
		o.FilePath = filepath.Join("logs", "chess-bot.log")
		if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
			o.FilePath = v
		}
	}
	return o
}

// InitFromEnv installs a logger built from OptionsFromEnv as the process logger.
func InitFromEnv() error {
	logger, err := New(OptionsFromEnv())
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// New builds a logger for o. With no sink enabled it falls back to stdout.
func New(o Options) (*zap.Logger, error) {
	var sinks []zapcore.WriteSyncer
	if o.Console {
		sinks = append(sinks, zapcore.AddSync(os.Stdout))
	}
	if o.FilePath != "" {
		f, err := openLogFile(o.FilePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, zapcore.AddSync(os.Stdout))
	}

	core := zapcore.NewCore(newEncoder(o.Format), zapcore.NewMultiWriteSyncer(sinks...), o.Level)
	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if o.Caller || o.Format == FormatLegacy {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

func openLogFile(p string) (zapcore.WriteSyncer, error) {
	if dir := filepath.Dir(p); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(f), nil
}

func newEncoder(f Format) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	switch f {
	case FormatJSON:
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	case FormatConsole:
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	default:
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(cfg)
	}
}

func parseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatConsole:
		return f
	default:
		return FormatLegacy
	}
}

func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true")
}
