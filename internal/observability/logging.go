package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Log output formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// LogConfig controls every logger built by NewLogger. Loaded from
// STATECACHE_LOG_* variables.
type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	// json for production, console for human-readable local output.
	Format  string `env:"FORMAT" envDefault:"json"`
	NoColor bool   `env:"NO_COLOR"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: LogFormatJSON}
}

// LoadLogConfig reads the log configuration from the environment.
func LoadLogConfig() (LogConfig, error) {
	var cfg LogConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "STATECACHE_LOG_"}); err != nil {
		return LogConfig{}, fmt.Errorf("parse log config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return LogConfig{}, err
	}
	return cfg, nil
}

func (c LogConfig) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case LogFormatJSON, LogFormatConsole, "":
		return nil
	default:
		return fmt.Errorf("log format %q (use json or console)", c.Format)
	}
}

var (
	logConfigMu sync.RWMutex
	logConfig   = DefaultLogConfig()
)

// SetLogConfig replaces the configuration used by later NewLogger calls.
// Loggers already built keep their settings.
func SetLogConfig(cfg LogConfig) {
	logConfigMu.Lock()
	logConfig = cfg
	logConfigMu.Unlock()
}

func currentLogConfig() LogConfig {
	logConfigMu.RLock()
	defer logConfigMu.RUnlock()
	return logConfig
}

// NewLogger creates a component logger writing to stdout with the
// configuration last passed to SetLogConfig.
func NewLogger(component string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, component, currentLogConfig())
}

// NewLoggerTo builds a logger writing to w. An unparseable level falls back
// to info.
func NewLoggerTo(w io.Writer, component string, cfg LogConfig) zerolog.Logger {
	if strings.EqualFold(cfg.Format, LogFormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.RFC3339Nano}
	}
	return zerolog.New(w).
		Level(ParseLogLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// ParseLogLevel accepts any zerolog level name, case-insensitively.
// Empty or unknown names mean info.
func ParseLogLevel(s string) zerolog.Level {
	level, err := parseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func parseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, err
	}
	return level, nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
