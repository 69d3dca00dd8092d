package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/robustfit/pkg/errors"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zl *zerolog.Logger
}

// NewZerologLogger creates a Logger writing JSON lines to w at the given level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: &zl}
}

func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			if m, ok := err.(zerolog.LogObjectMarshaler); ok {
				ev = ev.Object("error_detail", m)
			}
			fields = fields[1:]
		}
	}
	l.emit(ev, msg, fields)
}

func (l *ZerologLogger) With(fields ...any) Logger {
	zl := l.zl.With().Fields(fields).Logger()
	return &ZerologLogger{zl: &zl}
}

func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.zl.GetLevel() <= toZerologLevel(level)
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	ev.Fields(fields).Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider is the package-level LoggerProvider.
type zerologProvider struct {
	mu    sync.RWMutex
	w     io.Writer
	level Level
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return NewZerologLogger(p.w, p.level)
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func (p *zerologProvider) setOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.w = w
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = &zerologProvider{w: os.Stderr, level: LevelWarn}
)

// SetProvider replaces the package-level provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

func provider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider
}

// GetLogger returns a logger from the package-level provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with the component name.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the package-level provider.
func SetLevel(level Level) {
	provider().SetLevel(level)
}

// SetOutput redirects the default zerolog provider. It has no effect after
// SetProvider installed a different implementation.
func SetOutput(w io.Writer) {
	if p, ok := provider().(*zerologProvider); ok {
		p.setOutput(w)
	}
}

// EnableZerologWarnings routes errors.Warn through the given logger.
// Structured warnings are embedded as objects.
func EnableZerologWarnings(w io.Writer) {
	zl := zerolog.New(w).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}

// DisableZerologWarnings restores the plain warning handler.
func DisableZerologWarnings() {
	errors.SetZerologWarnFunc(nil)
}
