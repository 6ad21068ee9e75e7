// Package logging wraps hclog into the structured, leveled logger used
// throughout the encode pipeline. Every component logs through a *Logger
// rather than the standard log package so that fields (path, error kind,
// elapsed time, ...) stay queryable instead of buried in a formatted string.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/kerasty/smart-encoder/internal/config"
)

// Logger is the structured logger passed by pointer to every pipeline
// component. It embeds hclog.Logger so callers get Info/Warn/Error/Debug
// with structured key/value pairs, plus a couple of domain-specific
// conveniences (Success, Outlier) and an optional file sink.
type Logger struct {
	hclog.Logger
	file *os.File
}

// NewLogger builds a Logger from cfg: level from --log-level, color from
// --color/--no-color/auto-TTY-detect, and an optional --log file sink
// tee'd alongside stdout.
func NewLogger(cfg *config.Config) (*Logger, error) {
	color := hclog.ColorOff
	switch cfg.ColorMode {
	case config.ColorAlways:
		color = hclog.ForceColor
	case config.ColorAuto:
		color = hclog.AutoColor
	case config.ColorNever:
		color = hclog.ColorOff
	}

	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	if cfg.Verbose && level > hclog.Debug {
		level = hclog.Debug
	}

	var out io.Writer = os.Stdout
	var file *os.File
	if cfg.LogFile != "" {
		if dir := filepath.Dir(cfg.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	hl := hclog.New(&hclog.LoggerOptions{
		Name:            "smart-encoder",
		Level:           level,
		Output:          out,
		Color:           color,
		IncludeLocation: false,
	})

	return &Logger{Logger: hl, file: file}, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Success logs a completed-file outcome at Info level tagged so it's easy
// to grep out of a run's combined output.
func (l *Logger) Success(msg string, args ...interface{}) {
	l.Info(msg, append(args, "outcome", "success")...)
}

// Outlier logs a value that fell outside expected bounds (e.g. an oversize
// escalation) at Warn level tagged for triage.
func (l *Logger) Outlier(msg string, args ...interface{}) {
	l.Warn(msg, append(args, "outcome", "outlier")...)
}

// Named returns a sub-logger prefixed with name, e.g. per-component loggers
// ("probe", "preencode", "transcode") so log lines are attributable at a
// glance.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), file: l.file}
}
