package logging

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	defaultMu    sync.Mutex
	defaultOut   io.Writer = os.Stderr
	defaultLevel           = levelFromEnv()
)

func levelFromEnv() Level {
	return ParseLevel(os.Getenv("STOKER_LOG_LEVEL"))
}

// SetOutput redirects all component loggers to w.
func SetOutput(w io.Writer) {
	defaultMu.Lock()
	defaultOut = w
	defaultMu.Unlock()
}

// SetLevel sets the minimum level emitted by component loggers.
func SetLevel(level Level) {
	defaultMu.Lock()
	defaultLevel = level
	defaultMu.Unlock()
}

type componentLogger struct {
	component string
}

// NewComponentLogger creates a logger scoped to a component name.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component}
}

func (l *componentLogger) log(level Level, format string, args ...any) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if level < defaultLevel {
		return
	}

	// Format: 2025-09-30 12:34:56 [INFO] [scheduler] message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] %s\n", timestamp, level, l.component, message)
	fmt.Fprint(defaultOut, Redact(line))
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

const redactedPlaceholder = "[REDACTED]"

var (
	bearerTokenPattern   = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)
	sensitivePairPattern = regexp.MustCompile(
		`(?i)((?:"|')?(?:api[_-]?key|access[_-]?token|refresh[_-]?token|client[_-]?secret)(?:"|')?\s*(?:=|:)\s*)(?:"|')?([^"'\s,;&]+)((?:"|')?)`,
	)
	googleTokenPattern = regexp.MustCompile(`(?i)(ya29\.[A-Za-z0-9\-_\.]+|1//[A-Za-z0-9\-_]{20,})`)
)

// Redact masks bearer tokens and credential-looking key/value pairs in a log line.
func Redact(line string) string {
	sanitized := bearerTokenPattern.ReplaceAllString(line, "${1}"+redactedPlaceholder)
	sanitized = sensitivePairPattern.ReplaceAllString(sanitized, "${1}"+redactedPlaceholder+"${3}")
	sanitized = googleTokenPattern.ReplaceAllString(sanitized, redactedPlaceholder)
	return sanitized
}
