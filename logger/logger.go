package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EventServiceStartup    = "SERVICE_STARTUP"
	EventServiceShutdown   = "SERVICE_SHUTDOWN"
	EventDBConnection      = "DB_CONNECTION"
	EventDBError           = "DB_ERROR"
	EventValidationFailure = "VALIDATION_FAILURE"
	EventRecordCreated     = "RECORD_CREATED"
	EventRecordDuplicate   = "RECORD_DUPLICATE"
	EventRecordUpdated     = "RECORD_UPDATED"
	EventRecordDeleted     = "RECORD_DELETED"
	EventAccessDenied      = "ACCESS_DENIED"
	EventRateLimited       = "RATE_LIMITED"
	EventRequest           = "HTTP_REQUEST"
	EventSeed              = "DATA_SEED"
	EventGeneral           = "GENERAL"
)

type Config struct {
	ServiceName string
	Environment string
	Level       string
	LogFilePath string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

type Logger struct {
	config Config
	slog   *slog.Logger
	closer io.Closer
}

var sensitiveFields = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"authorization": true,
	"cookie":        true,
	"api_key":       true,
}

var uriCredentials = regexp.MustCompile(`(://)[^/@\s:]+:[^/@\s]+@`)

var (
	mu       sync.RWMutex
	instance *Logger
)

func Init(cfg Config) {
	l := NewLogger(cfg)
	mu.Lock()
	instance = l
	mu.Unlock()
}

func GetLogger() *Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = New(Config{ServiceName: "unknown", Environment: "development"}, os.Stdout)
	}
	return instance
}

// NewLogger writes to stdout and, when LogFilePath is set, to a rotated file.
func NewLogger(cfg Config) *Logger {
	if cfg.LogFilePath == "" {
		return New(cfg, os.Stdout)
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}

	logDir := filepath.Dir(cfg.LogFilePath)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: cannot create log directory %s: %v, using stdout only\n", logDir, err)
		return New(cfg, os.Stdout)
	}
	file := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	l := New(cfg, io.MultiWriter(os.Stdout, file))
	l.closer = file
	return l
}

// New builds a Logger emitting JSON lines to w.
func New(cfg Config, w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redact,
	})
	base := slog.New(handler)
	if cfg.ServiceName != "" {
		base = base.With("service", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		base = base.With("environment", cfg.Environment)
	}
	return &Logger{config: cfg, slog: base}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveFields[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[REDACTED]")
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskCredentials(a.Value.String()))
	}
	return a
}

// MaskCredentials hides the user:password part of connection strings.
func MaskCredentials(s string) string {
	return uriCredentials.ReplaceAllString(s, "${1}***:***@")
}

func (l *Logger) log(level slog.Level, eventType, message string, details map[string]interface{}) {
	attrs := make([]slog.Attr, 0, len(details)+1)
	attrs = append(attrs, slog.String("event_type", eventType))
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.slog.LogAttrs(context.Background(), level, message, attrs...)
}

func (l *Logger) Debug(eventType, message string, details map[string]interface{}) {
	l.log(slog.LevelDebug, eventType, message, details)
}

func (l *Logger) Info(eventType, message string, details map[string]interface{}) {
	l.log(slog.LevelInfo, eventType, message, details)
}

func (l *Logger) Warn(eventType, message string, details map[string]interface{}) {
	l.log(slog.LevelWarn, eventType, message, details)
}

func (l *Logger) Error(eventType, message string, details map[string]interface{}) {
	l.log(slog.LevelError, eventType, message, details)
}

func (l *Logger) Fatal(eventType, message string, details map[string]interface{}) {
	l.log(slog.LevelError, eventType, message, details)
	l.Close()
	os.Exit(1)
}

// Close flushes the rotated log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func Debug(eventType, message string, details map[string]interface{}) {
	GetLogger().Debug(eventType, message, details)
}
func Info(eventType, message string, details map[string]interface{}) {
	GetLogger().Info(eventType, message, details)
}
func Warn(eventType, message string, details map[string]interface{}) {
	GetLogger().Warn(eventType, message, details)
}
func Error(eventType, message string, details map[string]interface{}) {
	GetLogger().Error(eventType, message, details)
}
func Fatal(eventType, message string, details map[string]interface{}) {
	GetLogger().Fatal(eventType, message, details)
}

func Fields(kv ...interface{}) map[string]interface{} {
	details := make(map[string]interface{})
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		details[key] = kv[i+1]
	}
	return details
}
