package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	outMu   sync.RWMutex
	out     io.Writer
	console *bool
)

// Configure sets the global level and output format for loggers created
// afterwards. format is "json" or "console"; an empty level keeps "info".
func Configure(level, format string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		lvl = l
	}
	zerolog.SetGlobalLevel(lvl)
	c := strings.EqualFold(format, "console")
	outMu.Lock()
	console = &c
	outMu.Unlock()
	return nil
}

// SetOutput redirects all loggers created afterwards to w. A nil writer
// restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	out = w
	outMu.Unlock()
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger. Console output is used when
// Configure selected it or, failing that, when APP_ENV is "dev". All logs
// include the provided component field.
func NewZerologLogger(component string) Logger {
	outMu.RLock()
	w := out
	c := console
	outMu.RUnlock()
	if w == nil {
		w = os.Stdout
	}
	useConsole := strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	if c != nil {
		useConsole = *c
	}
	if useConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
