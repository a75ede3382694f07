package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a Level.
// Unknown names fall back to INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Config configures the logger with rotation settings
type Config struct {
	// Filename is the file to write logs to. Empty, "-" or "stdout" log to stdout.
	Filename string

	// MaxSize is the maximum size in megabytes before rotation
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// Compress determines if rotated logs should be compressed
	Compress bool

	// Level is the minimum logging level
	Level Level

	// Output allows setting custom output writer (for testing)
	Output io.Writer
}

// DefaultConfig returns sensible defaults
func DefaultConfig(filename string) Config {
	return Config{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
		Level:      INFO,
	}
}

// Logger provides leveled logging with key=value fields
type Logger struct {
	logger  *log.Logger
	level   *levelVar
	fields  map[string]any
	rotator *lumberjack.Logger // nil for stdout/custom writers
	Output  io.Writer
}

type levelVar struct {
	mu sync.RWMutex
	l  Level
}

func (v *levelVar) get() Level {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.l
}

func (v *levelVar) set(l Level) {
	v.mu.Lock()
	v.l = l
	v.mu.Unlock()
}

// NewWithConfig creates a new logger with rotation configuration
func NewWithConfig(cfg Config) (*Logger, error) {
	var (
		writer  io.Writer
		rotator *lumberjack.Logger
	)

	switch {
	case cfg.Output != nil:
		writer = cfg.Output
	case cfg.Filename == "" || cfg.Filename == "-" || cfg.Filename == "stdout":
		writer = os.Stdout
	default:
		logDir := filepath.Dir(cfg.Filename)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		rotator = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		writer = rotator
	}

	return &Logger{
		logger:  log.New(writer, "", 0),
		level:   &levelVar{l: cfg.Level},
		fields:  make(map[string]any),
		rotator: rotator,
		Output:  writer,
	}, nil
}

// New creates a new logger with default rotation settings
func New(logfile string) *Logger {
	logger, err := NewWithConfig(DefaultConfig(logfile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create log file %s: %v. Falling back to stdout.\n", logfile, err)
		logger, _ = NewWithConfig(Config{Output: os.Stdout, Level: INFO})
	}
	return logger
}

// Rotate triggers an immediate log rotation
func (l *Logger) Rotate() error {
	if l.rotator != nil {
		return l.rotator.Rotate()
	}
	return nil
}

// Close closes the log file if using rotation
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// SetLevel sets the minimum logging level for this logger and all derived loggers
func (l *Logger) SetLevel(level Level) {
	l.level.set(level)
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newLogger := &Logger{
		logger:  l.logger,
		level:   l.level,
		fields:  make(map[string]any, len(l.fields)+len(fields)),
		rotator: l.rotator,
		Output:  l.Output,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err)
}

// log formats and writes a log message
func (l *Logger) log(level Level, msg string, args ...any) {
	if level < l.level.get() {
		return
	}

	message := msg
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	logEntry := fmt.Sprintf("[%s] %s: %s", timestamp, level.String(), message)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+formatValue(l.fields[k]))
		}
		logEntry += " | " + strings.Join(parts, " | ")
	}

	l.logger.Println(logEntry)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.log(DEBUG, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.log(INFO, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.log(WARN, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.log(ERROR, msg, args...)
}

// Global default logger
var defaultLogger *Logger

func init() {
	defaultLogger, _ = NewWithConfig(Config{Output: os.Stdout, Level: INFO})
}

// SetDefault sets the default global logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// GetDefault returns the default global logger
func GetDefault() *Logger {
	return defaultLogger
}

// Info logs using the default logger
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs using the default logger
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs using the default logger
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// WithField returns a logger with a field using the default logger
func WithField(key string, value any) *Logger {
	return defaultLogger.WithField(key, value)
}

// WithFields returns a logger with fields using the default logger
func WithFields(fields map[string]any) *Logger {
	return defaultLogger.WithFields(fields)
}
