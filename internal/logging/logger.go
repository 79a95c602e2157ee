package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the process-wide logger set by Init.
var Logger *slog.Logger

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Init wires the default slog logger from the LOG_LEVEL and LOG_FORMAT
// config values. Unknown levels fall back to info, unknown formats to text.
func Init(level, format string) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// WithPost returns a logger annotated with the post id.
func WithPost(postID string) *slog.Logger {
	return Logger.With("post_id", postID)
}

// WithBrand returns a logger annotated with the brand name.
func WithBrand(brand string) *slog.Logger {
	return Logger.With("brand", brand)
}

// WithModel returns a logger annotated with the sentiment model name.
func WithModel(model string) *slog.Logger {
	return Logger.With("model", model)
}

// WithError returns a logger annotated with an error field.
func WithError(err error) *slog.Logger {
	return Logger.With("error", err)
}
