// Package logging configures the process-wide charmbracelet logger. Other packages log
// through the log package functions directly, e.g. log.Debug("msg", "key", value).
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn or error
	TimeFormat string
	ShowCaller bool
	Output     io.Writer // defaults to stderr
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:      "warn",
		TimeFormat: "15:04:05",
	}
}

// Init installs a logger built from cfg as the default logger. A nil cfg uses
// DefaultConfig.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: cfg.TimeFormat != "",
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.ShowCaller,
		Level:           level,
	})
	log.SetDefault(logger)
	return nil
}
