package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var zerologLevels = map[Level]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
	FATAL: zerolog.FatalLevel,
}

// Config holds logger configuration
type Config struct {
	Level       Level
	Output      io.Writer
	JSONFormat  bool
	EnableColor bool
	ShowCaller  bool
	TimeFormat  string
	ServiceName string
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	level := INFO
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level = parseLevel(lvl)
	}

	return &Config{
		Level:       level,
		Output:      os.Stdout,
		JSONFormat:  os.Getenv("LOG_FORMAT") == "json",
		EnableColor: os.Getenv("LOG_COLOR") != "false",
		ShowCaller:  true,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		ServiceName: os.Getenv("SERVICE_NAME"),
	}
}

// Logger is a structured logger backed by zerolog. Child loggers share the
// writer and carry their own fields.
type Logger struct {
	zl zerolog.Logger
}

type contextKey string

const (
	requestIDKey contextKey = "requestID"
)

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a new logger with given config
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if !config.JSONFormat {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !config.EnableColor,
			TimeFormat: config.TimeFormat,
		}
	}

	ctx := zerolog.New(out).Level(zerologLevels[config.Level]).With().Timestamp()
	if config.ServiceName != "" {
		ctx = ctx.Str("service", config.ServiceName)
	}
	if config.ShowCaller {
		ctx = ctx.CallerWithSkipFrameCount(4)
	}
	return &Logger{zl: ctx.Logger()}
}

// Default returns the default logger singleton
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(nil)
	})
	return defaultLogger
}

// With creates a child logger with an additional field
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields creates a child logger with multiple additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// WithError adds error field to logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// WithContext extracts request-scoped fields from context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zctx := l.zl.With()
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		zctx = zctx.Str("request_id", requestID)
	}
	return &Logger{zl: zctx.Logger()}
}

// ContextWithRequestID stores the request id picked up by WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Log methods

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log(FATAL, msg, args...)
	os.Exit(1)
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.zl.WithLevel(zerologLevels[level]).Msg(msg)
}

// ============================================================
// Request Logger - HTTP request/response logging
// ============================================================

// RequestLog represents an HTTP request log
type RequestLog struct {
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	Status       int           `json:"status"`
	Duration     time.Duration `json:"duration_ms"`
	ClientIP     string        `json:"client_ip"`
	UserAgent    string        `json:"user_agent,omitempty"`
	RequestID    string        `json:"request_id,omitempty"`
	RequestSize  int64         `json:"request_size,omitempty"`
	ResponseSize int64         `json:"response_size,omitempty"`
}

// LogRequest logs an HTTP request
func (l *Logger) LogRequest(req RequestLog) {
	level := INFO
	if req.Status >= 500 {
		level = ERROR
	} else if req.Status >= 400 {
		level = WARN
	}

	msg := fmt.Sprintf("%s %s -> %d (%s)", req.Method, req.Path, req.Status, req.Duration)

	l.WithFields(map[string]interface{}{
		"method":        req.Method,
		"path":          req.Path,
		"status":        req.Status,
		"duration_ms":   req.Duration.Milliseconds(),
		"client_ip":     req.ClientIP,
		"user_agent":    req.UserAgent,
		"request_id":    req.RequestID,
		"request_size":  req.RequestSize,
		"response_size": req.ResponseSize,
	}).log(level, msg)
}

// ============================================================
// Business Event Logger
// ============================================================

// EventLog represents a business event log
type EventLog struct {
	Event    string                 `json:"event"`
	UserID   int64                  `json:"user_id,omitempty"`
	EntityID string                 `json:"entity_id,omitempty"`
	Entity   string                 `json:"entity,omitempty"`
	Action   string                 `json:"action"`
	Success  bool                   `json:"success"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// LogEvent logs a business event
func (l *Logger) LogEvent(evt EventLog) {
	level := INFO
	if !evt.Success {
		level = WARN
	}

	msg := fmt.Sprintf("[%s] %s %s (ID: %s)", evt.Event, evt.Action, evt.Entity, evt.EntityID)

	fields := map[string]interface{}{
		"event":   evt.Event,
		"action":  evt.Action,
		"success": evt.Success,
	}
	if evt.UserID > 0 {
		fields["user_id"] = evt.UserID
	}
	if evt.Entity != "" {
		fields["entity"] = evt.Entity
		fields["entity_id"] = evt.EntityID
	}
	for k, v := range evt.Metadata {
		fields[k] = v
	}
	if evt.Error != "" {
		fields["error"] = evt.Error
	}

	l.WithFields(fields).log(level, msg)
}

// ============================================================
// Package-level functions using default logger
// ============================================================

func Debug(msg string, args ...interface{}) {
	Default().log(DEBUG, msg, args...)
}

func Info(msg string, args ...interface{}) {
	Default().log(INFO, msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Default().log(WARN, msg, args...)
}

func Error(msg string, args ...interface{}) {
	Default().log(ERROR, msg, args...)
}

func Fatal(msg string, args ...interface{}) {
	Default().Fatal(msg, args...)
}

func parseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}
