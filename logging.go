package instanced

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes timestamped console lines through zerolog.
type DefaultLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return newDefaultLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMicro}, prefix, debug)
}

func newDefaultLogger(out io.Writer, prefix string, debug bool) *DefaultLogger {
	ctx := zerolog.New(out).With().Timestamp()
	if prefix != "" {
		ctx = ctx.Str("module", prefix)
	}
	l := &DefaultLogger{logger: ctx.Logger()}
	l.SetDebug(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger.GetLevel() <= zerolog.DebugLevel
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if enabled {
		l.logger = l.logger.Level(zerolog.DebugLevel)
	} else {
		l.logger = l.logger.Level(zerolog.InfoLevel)
	}
}

// Zerolog returns the underlying logger for packages that log structured
// events directly.
func (l *DefaultLogger) Zerolog() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	z := l.Zerolog()
	z.Debug().Msgf(format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	z := l.Zerolog()
	z.Info().Msgf(format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	z := l.Zerolog()
	z.Warn().Msgf(format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	z := l.Zerolog()
	z.Error().Msgf(format, args...)
}

// LoggingModule installs a default logger as a resource.
type LoggingModule struct {
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	logger := NewDefaultLogger(m.Prefix, m.Debug)
	app.addResources(logger)
}

type nopLogger struct{}

func NewNopLogger() Logger                             { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	if l, ok := Resource[DefaultLogger](app); ok {
		return l
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}

// zerologFor bridges the app logger to packages taking a zerolog.Logger.
func zerologFor(app *App) zerolog.Logger {
	if l, ok := app.Logger().(*DefaultLogger); ok {
		return l.Zerolog()
	}
	return zerolog.Nop()
}
