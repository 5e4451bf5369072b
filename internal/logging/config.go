package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "MICROBENCH_LOG_LEVEL"
	EnvLogTimestamp = "MICROBENCH_LOG_TIMESTAMP"
	EnvLogNoColor   = "MICROBENCH_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config holds the resolved logging knobs before the global logger is built.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Out       io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the process-global zerolog logger exactly once.
// Benchmark report lines go to stdout; diagnostics go through this logger
// on stderr so piped tool output stays clean.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		log.Logger = Build(cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

// Build constructs a console logger from cfg without touching globals.
func Build(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	writer := zerolog.ConsoleWriter{
		Out:     out,
		NoColor: cfg.NoColor,
	}
	if cfg.Timestamp {
		writer.TimeFormat = time.RFC3339
		return zerolog.New(writer).With().Timestamp().Logger()
	}
	writer.FormatTimestamp = func(any) string { return "" }
	return zerolog.New(writer)
}

func defaultConfig(profile Profile) Config {
	cfg := Config{Timestamp: true, Level: zerolog.InfoLevel}
	if profile == ProfileTest {
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
