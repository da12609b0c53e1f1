package log

import (
	"fmt"
	"log/slog"
	"os"
)

// Output keys of the JSON log records.
const (
	SeverityKey = "severity"
	MessageKey  = "message"
	SourceKey   = "source"
)

// SetupLogger function setup logger.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource:   true,
		Level:       ToLogLevel(loglevel),
		ReplaceAttr: replaceAttrs,
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// replaceAttrs renames slog's built-in record keys to the record vocabulary
// used throughout the pipeline logs.
func replaceAttrs(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.LevelKey:
		attr.Key = SeverityKey
	case slog.MessageKey:
		attr.Key = MessageKey
	case slog.SourceKey:
		attr.Key = SourceKey
	}
	return attr
}

func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
