// Package logging is the application log: a small Logger interface backed
// by zap, plus typed field constructors for the values the shop logs.
package logging

import (
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Level shares zap's numbering so conversions are plain casts.
type Level int8

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	WarnLevel  = Level(zapcore.WarnLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

func (l Level) String() string {
	return zapcore.Level(l).CapitalString()
}

// ParseLevel accepts zap level names in any case plus "warning".
// Unknown names, and levels above error, fall back to INFO.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(s)); err != nil || zl > zapcore.ErrorLevel {
		return InfoLevel
	}
	return Level(zl)
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// Logger is what packages depend on; ZapLogger and NopLogger implement it.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger sharing this logger's level.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// Format selects the zap encoder.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation logs msg with the elapsed time when it ends.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
