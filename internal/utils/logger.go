package utils

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	CurrentLevel   LogLevel = LevelWarn
	ShowRaylibInfo bool
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel maps a config/flag string onto a LogLevel. Unknown names fall back to warn.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "error":
		return LevelError
	}
	return LevelWarn
}

func logMessage(level LogLevel, format string, v ...interface{}) {
	if level < CurrentLevel {
		return
	}

	const (
		colorReset  = "\033[0m"
		colorCyan   = "\033[36m"
		colorBlue   = "\033[34m"
		colorYellow = "\033[33m"
		colorRed    = "\033[31m"
	)

	var colorCode string
	switch level {
	case LevelDebug:
		colorCode = colorCyan
	case LevelInfo:
		colorCode = colorBlue
	case LevelWarn:
		colorCode = colorYellow
	case LevelError:
		colorCode = colorRed
	}

	prefix := fmt.Sprintf("%s[%s]%s ", colorCode, level.String(), colorReset)
	log.Printf(prefix+format, v...)
}

func Info(format string, v ...interface{})  { logMessage(LevelInfo, format, v...) }
func Debug(format string, v ...interface{}) { logMessage(LevelDebug, format, v...) }
func Warn(format string, v ...interface{})  { logMessage(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { logMessage(LevelError, format, v...) }

func RaylibLogCallback(level int, text string) {
	const colorMagenta = "\033[35m"
	const colorReset = "\033[0m"
	formattedText := colorMagenta + "[RAYLIB] " + colorReset + text
	switch level {
	case 1, 2: // LOG_TRACE, LOG_DEBUG
		if CurrentLevel <= LevelDebug {
			Debug("%s", formattedText)
		}
	case 3: // LOG_INFO
		if ShowRaylibInfo || CurrentLevel <= LevelInfo {
			Info("%s", formattedText)
		}
	case 4: // LOG_WARNING
		Warn("%s", formattedText)
	case 5, 6: // LOG_ERROR, LOG_FATAL
		Error("%s", formattedText)
	}
}

// SlogHandler forwards slog records from libraries (gg) into the level logger.
type SlogHandler struct {
	Prefix string
	attrs  []slog.Attr
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return fromSlogLevel(level) >= CurrentLevel
}

func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	if h.Prefix != "" {
		sb.WriteString(h.Prefix)
		sb.WriteString(": ")
	}
	sb.WriteString(record.Message)
	for _, attr := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", attr.Key, attr.Value)
		return true
	})
	logMessage(fromSlogLevel(record.Level), "%s", sb.String())
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SlogHandler{Prefix: h.Prefix, attrs: merged}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.Prefix != "" {
		prefix = h.Prefix + "." + name
	}
	return &SlogHandler{Prefix: prefix, attrs: h.attrs}
}

// NewSlogLogger returns a *slog.Logger writing through the level logger.
func NewSlogLogger(prefix string) *slog.Logger {
	return slog.New(&SlogHandler{Prefix: prefix})
}

func fromSlogLevel(level slog.Level) LogLevel {
	switch {
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	}
	return LevelError
}
