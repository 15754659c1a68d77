package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

type Config struct {
	Env              string // dev, prod or test
	Level            string // overrides the env default when set
	AddSource        bool
	Output           io.Writer
	TimeFormat       string
	SourcePathLength int
}

// Logger is a thin wrapper around slog.Logger so components can be handed
// a concrete type and scoped with With.
type Logger struct {
	*slog.Logger
}

func New(config Config) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = "15:04:05.000"
	}

	handler, err := newHandler(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build log handler: %w", err)
	}

	l := slog.New(handler)
	slog.SetDefault(l)

	return &Logger{Logger: l}, nil
}

// Must panics if the logger could not be built. Used in main only.
func Must(l *Logger, err error) *Logger {
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return l
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
