package logger

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var envLevels = map[string]slog.Level{
	"dev":  slog.LevelDebug,
	"prod": slog.LevelInfo,
	"test": slog.LevelError,
}

func newHandler(config Config) (slog.Handler, error) {
	env := strings.ToLower(config.Env)
	if _, ok := envLevels[env]; !ok {
		return nil, fmt.Errorf("unknown environment: %q (use dev, prod or test)", config.Env)
	}

	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(env, config.Level),
		AddSource: config.AddSource,
	}

	switch env {
	case "prod":
		opts.ReplaceAttr = replaceAttr("", config.SourcePathLength)
		return slog.NewJSONHandler(config.Output, opts), nil
	case "test":
		// Tests only care about failures, whatever level was asked for
		return slog.NewTextHandler(config.Output, &slog.HandlerOptions{Level: slog.LevelError}), nil
	default:
		opts.ReplaceAttr = replaceAttr(config.TimeFormat, config.SourcePathLength)
		return slog.NewTextHandler(config.Output, opts), nil
	}
}

func parseLogLevel(env, explicit string) slog.Level {
	if lvl, ok := levels[strings.ToLower(explicit)]; ok {
		return lvl
	}
	if lvl, ok := envLevels[strings.ToLower(env)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// replaceAttr reformats the time key when timeFormat is set and trims
// source paths to their last pathLength segments.
func replaceAttr(timeFormat string, pathLength int) func([]string, slog.Attr) slog.Attr {
	if timeFormat == "" && pathLength <= 0 {
		return nil
	}

	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey:
			if t, ok := a.Value.Any().(time.Time); ok && timeFormat != "" {
				a.Value = slog.StringValue(t.Format(timeFormat))
			}
		case slog.SourceKey:
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
				src.File = shortenPath(src.File, pathLength)
			}
		}
		return a
	}
}

func shortenPath(path string, segments int) string {
	if segments <= 0 {
		return path
	}

	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= segments {
		return path
	}
	return strings.Join(parts[len(parts)-segments:], "/")
}
