package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelTrace LogLevel = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// requestIDKey is the context key type under which transports store a request id.
type requestIDKey struct{}

// RequestIDKey is exported as a value so callers can use context.WithValue.
var RequestIDKey = requestIDKey{}

// WithRequestID returns ctx carrying id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       LogLevel  `json:"level"`
	Format      string    `json:"format"`       // "json" or "text"
	Output      string    `json:"output"`       // "stdout", "stderr", or file path
	EnableAsync bool      `json:"enable_async"` // Enable async logging
	Writer      io.Writer `json:"-"`            // overrides Output when set
}

// Logger provides structured logging with context support
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	asyncCh chan LogEntry
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// DefaultLogConfig returns sensible default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LevelInfo,
		Format: "text",
		Output: "stderr",
	}
}

// ParseLevel maps a config string (trace..fatal, any case) to a LogLevel.
// Unknown values map to LevelInfo.
func ParseLevel(s string) LogLevel {
	return levelFromString(strings.ToUpper(strings.TrimSpace(s)))
}

// NewLogger creates a new structured logger
func NewLogger(config LogConfig) (*Logger, error) {
	ctx, cancel := context.WithCancel(context.Background())

	logger := &Logger{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	// Setup output writer
	var writer io.Writer
	switch {
	case config.Writer != nil:
		writer = config.Writer
	case config.Output == "" || config.Output == "stderr":
		writer = os.Stderr
	case config.Output == "stdout":
		writer = os.Stdout
	default:
		if err := logger.setupFileLogging(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to setup file logging: %w", err)
		}
		writer = logger.file
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: toSlog(config.Level),
	}

	if config.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger.slogger = slog.New(handler)

	if config.EnableAsync {
		logger.asyncCh = make(chan LogEntry, 1000)
		logger.wg.Add(1)
		go logger.asyncWorker()
	}

	return logger, nil
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	l, _ := NewLogger(LogConfig{Level: LevelFatal + 1, Writer: io.Discard})
	return l
}

// setupFileLogging creates log directory and file
func (l *Logger) setupFileLogging() error {
	dir := filepath.Dir(l.config.Output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(l.config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.file = file
	return nil
}

// asyncWorker processes log entries asynchronously
func (l *Logger) asyncWorker() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.asyncCh:
			l.writeEntry(entry)
		case <-l.ctx.Done():
			// Drain remaining entries
			for {
				select {
				case entry := <-l.asyncCh:
					l.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

// writeEntry writes a log entry to the output
func (l *Logger) writeEntry(entry LogEntry) {
	level := toSlog(levelFromString(entry.Level))

	attrs := make([]slog.Attr, 0, len(entry.Fields)+3)
	if entry.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", entry.RequestID))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}
	if entry.Caller != "" {
		attrs = append(attrs, slog.String("caller", entry.Caller))
	}

	for key, value := range entry.Fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	l.slogger.LogAttrs(context.Background(), level, entry.Message, attrs...)
}

// Close flushes pending async entries and closes any log file.
func (l *Logger) Close() error {
	var err error
	l.once.Do(func() {
		l.cancel()
		if l.config.EnableAsync {
			l.wg.Wait()
		}
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// WithContext returns a logger with context information
func (l *Logger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: l,
		ctx:    ctx,
	}
}

// WithComponent returns a logger with component information
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger    *Logger
	ctx       context.Context
	component string
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component string
}

// Debug logs at debug level
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, "", fields...)
}

// Info logs at info level
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, "", fields...)
}

// Warn logs at warning level
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, "", fields...)
}

// Error logs at error level
func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, errString(err), fields...)
}

// Fatal logs at fatal level and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(LevelFatal, msg, errString(err), fields...)
	l.Close()
	os.Exit(1)
}

// ComponentLogger methods

// Ctx binds a context (request id) to this component logger.
func (cl *ComponentLogger) Ctx(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: cl.logger, ctx: ctx, component: cl.component}
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(LevelDebug, msg, "", append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(LevelInfo, msg, "", append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(LevelWarn, msg, "", append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(LevelError, msg, errString(err), append(fields, String("component", cl.component))...)
}

// ContextLogger methods
func (cl *ContextLogger) Debug(msg string, fields ...Field) {
	cl.logger.logWithContext(cl.ctx, LevelDebug, msg, "", cl.with(fields)...)
}

func (cl *ContextLogger) Info(msg string, fields ...Field) {
	cl.logger.logWithContext(cl.ctx, LevelInfo, msg, "", cl.with(fields)...)
}

func (cl *ContextLogger) Warn(msg string, fields ...Field) {
	cl.logger.logWithContext(cl.ctx, LevelWarn, msg, "", cl.with(fields)...)
}

func (cl *ContextLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.logWithContext(cl.ctx, LevelError, msg, errString(err), cl.with(fields)...)
}

func (cl *ContextLogger) with(fields []Field) []Field {
	if cl.component == "" {
		return fields
	}
	return append(fields, String("component", cl.component))
}

// Internal logging methods
func (l *Logger) log(level LogLevel, msg, errorStr string, fields ...Field) {
	l.logWithContext(context.Background(), level, msg, errorStr, fields...)
}

func (l *Logger) logWithContext(ctx context.Context, level LogLevel, msg, errorStr string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     levelToString(level),
		Message:   msg,
		RequestID: RequestIDFrom(ctx),
		Error:     errorStr,
		Fields:    make(map[string]interface{}, len(fields)),
	}

	if level >= LevelWarn {
		_, file, line, ok := runtime.Caller(3)
		if ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	for _, field := range fields {
		field.AddTo(entry.Fields)
	}

	// After Close the worker is gone; write inline instead of queueing.
	if l.config.EnableAsync && l.ctx.Err() == nil {
		select {
		case l.asyncCh <- entry:
		default:
			// Async buffer full, log synchronously
			l.writeEntry(entry)
		}
	} else {
		l.writeEntry(entry)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// AddTo adds the field to the provided map
func (f Field) AddTo(m map[string]interface{}) {
	m[f.Key] = f.Value
}

// Field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Utility functions

func toSlog(level LogLevel) slog.Level {
	switch level {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return slog.LevelError + 4
	default:
		return slog.LevelError + 8
	}
}
func levelToString(level LogLevel) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func levelFromString(level string) LogLevel {
	switch level {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}
