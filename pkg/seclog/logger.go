// Package seclog records security and audit events. Every entry is written to
// the console logger; outside development mode it is also appended as one JSON
// line to a file partitioned by level and UTC date.
package seclog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

// maxLoggedInput caps attack payloads copied into entries.
const maxLoggedInput = 100

// Hook observes every entry after it is emitted.
type Hook func(Entry)

// Logger writes security entries. Safe for concurrent use; methods never return errors.
type Logger struct {
	dir     string
	dev     bool
	console logging.Logger
	now     func() time.Time

	mu    sync.Mutex
	dirOK bool
	hooks []Hook
}

// Option customises a Logger.
type Option func(*Logger)

// WithConsole sets the logger used for the human-readable line.
func WithConsole(l logging.Logger) Option {
	return func(s *Logger) { s.console = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Logger) { s.now = now }
}

// WithHook registers an observer.
func WithHook(h Hook) Option {
	return func(s *Logger) { s.hooks = append(s.hooks, h) }
}

// New creates a logger. The log directory is created on first write.
func New(cfg Config, opts ...Option) *Logger {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	l := &Logger{
		dir:     cfg.Dir,
		dev:     cfg.Development,
		console: logging.DefaultLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.console = l.console.With(logging.Component("security"))
	return l
}

// NewNop returns a development-mode logger with a silent console, for tests.
func NewNop(opts ...Option) *Logger {
	return New(Config{Development: true}, append([]Option{WithConsole(logging.NewNopLogger())}, opts...)...)
}

// AddHook registers an observer after construction.
func (l *Logger) AddHook(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

// Dir returns the log directory.
func (l *Logger) Dir() string {
	return l.dir
}

// Log stamps and emits an entry.
func (l *Logger) Log(level Level, e Entry) {
	e.ID = uuid.NewString()
	e.Timestamp = l.now().UTC()
	e.Level = level

	l.writeConsole(e)
	if !l.dev {
		l.writeFile(e)
	}

	l.mu.Lock()
	hooks := l.hooks
	l.mu.Unlock()
	for _, h := range hooks {
		h(e)
	}
}

func (l *Logger) writeConsole(e Entry) {
	fields := []logging.Field{logging.String("level", string(e.Level))}
	if e.Event != "" {
		fields = append(fields, logging.String("event", string(e.Event)))
	}
	if e.UserID != 0 {
		fields = append(fields, logging.UserID(e.UserID))
	}
	if e.IP != "" {
		fields = append(fields, logging.IP(e.IP))
	}
	if e.Endpoint != "" {
		fields = append(fields, logging.Path(e.Endpoint))
	}
	if len(e.Data) > 0 {
		fields = append(fields, logging.Any("data", e.Data))
	}
	if e.Error != "" {
		fields = append(fields, logging.String("error", e.Error))
	}

	msg := "[" + string(e.Level) + "] " + e.Message
	switch e.Level {
	case LevelError:
		l.console.Error(msg, fields...)
	case LevelWarn, LevelSecurity:
		l.console.Warn(msg, fields...)
	default:
		l.console.Info(msg, fields...)
	}
}

// fileName returns {dir}/{level}-{YYYY-MM-DD}.log for t.
func (l *Logger) fileName(level Level, t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s-%s.log", strings.ToLower(string(level)), t.Format("2006-01-02")))
}

func (l *Logger) writeFile(e Entry) {
	line, err := json.Marshal(e)
	if err != nil {
		l.console.Error("failed to marshal security log entry", logging.Error(err))
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirOK {
		if err := os.MkdirAll(l.dir, 0o750); err != nil {
			l.console.Error("failed to create security log directory", logging.String("dir", l.dir), logging.Error(err))
			return
		}
		l.dirOK = true
	}

	f, err := os.OpenFile(l.fileName(e.Level, e.Timestamp), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		l.console.Error("failed to open security log file", logging.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		l.console.Error("failed to write security log entry", logging.Error(err))
	}
}

// Info logs an INFO entry.
func (l *Logger) Info(message string, data map[string]any) {
	l.Log(LevelInfo, Entry{Message: message, Data: data})
}

// Warn logs a WARN entry.
func (l *Logger) Warn(message string, data map[string]any) {
	l.Log(LevelWarn, Entry{Message: message, Data: data})
}

// Error logs an ERROR entry.
func (l *Logger) Error(message string, err error, ctx Context) {
	e := fromContext(ctx)
	e.Message = message
	if err != nil {
		e.Error = err.Error()
	}
	l.Log(LevelError, e)
}

// Security logs a SECURITY entry.
func (l *Logger) Security(event Event, message string, ctx Context) {
	e := fromContext(ctx)
	e.Event = event
	e.Message = message
	l.Log(LevelSecurity, e)
}

// Audit logs an AUDIT entry for a state change by an identified actor.
func (l *Logger) Audit(event Event, message string, ctx Context) {
	e := fromContext(ctx)
	e.Event = event
	e.Message = message
	l.Log(LevelAudit, e)
}

func fromContext(ctx Context) Entry {
	return Entry{
		UserID:    ctx.UserID,
		UserEmail: ctx.UserEmail,
		IP:        ctx.IP,
		UserAgent: ctx.UserAgent,
		Endpoint:  ctx.Endpoint,
		Method:    ctx.Method,
		Data:      ctx.Data,
	}
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedInput {
		return s
	}
	return string(r[:maxLoggedInput])
}
