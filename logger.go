package smtpsink

import (
	"context"
	"io"
	"log/slog"
)

// Logger is the structured logging interface used throughout this
// package. Implementations may wrap slog, or any other framework that
// can be adapted to this shape.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...LogAttr)
	Info(ctx context.Context, msg string, attrs ...LogAttr)
	Warn(ctx context.Context, msg string, attrs ...LogAttr)
	Error(ctx context.Context, msg string, attrs ...LogAttr)

	// With returns a new Logger with the given attributes attached to
	// every subsequent log line.
	With(attrs ...LogAttr) Logger
}

// LogAttr is a key/value pair for structured logging.
type LogAttr struct {
	Key   string
	Value any
}

// Attr creates a log attribute.
func Attr(key string, value any) LogAttr {
	return LogAttr{Key: key, Value: value}
}

// Common attribute keys used by the Driver and Server.
const (
	AttrSessionID = "session_id"
	AttrClientIP  = "client_ip"
	AttrAction    = "action"
	AttrState     = "state"
	AttrReplyCode = "reply_code"
	AttrMessageID = "message_id"
)

// NullLogger discards everything. It is the default Logger.
type NullLogger struct{}

func (NullLogger) Debug(context.Context, string, ...LogAttr) {}
func (NullLogger) Info(context.Context, string, ...LogAttr)  {}
func (NullLogger) Warn(context.Context, string, ...LogAttr)  {}
func (NullLogger) Error(context.Context, string, ...LogAttr) {}
func (n NullLogger) With(...LogAttr) Logger                  { return n }

// SlogLogger backs Logger with the standard library's structured
// logger. This is the idiom the rest of the retrieval corpus reaches
// for (synqronlabs-raven's Server, among others) in place of a
// hand-rolled formatter.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps w in a text-handler slog.Logger at the given level.
func NewSlogLogger(w io.Writer, level slog.Level) *SlogLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

func toSlogArgs(attrs []LogAttr) []any {
	args := make([]any, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, a.Key, a.Value)
	}
	return args
}

func (l *SlogLogger) Debug(ctx context.Context, msg string, attrs ...LogAttr) {
	l.logger.DebugContext(ctx, msg, toSlogArgs(attrs)...)
}

func (l *SlogLogger) Info(ctx context.Context, msg string, attrs ...LogAttr) {
	l.logger.InfoContext(ctx, msg, toSlogArgs(attrs)...)
}

func (l *SlogLogger) Warn(ctx context.Context, msg string, attrs ...LogAttr) {
	l.logger.WarnContext(ctx, msg, toSlogArgs(attrs)...)
}

func (l *SlogLogger) Error(ctx context.Context, msg string, attrs ...LogAttr) {
	l.logger.ErrorContext(ctx, msg, toSlogArgs(attrs)...)
}

func (l *SlogLogger) With(attrs ...LogAttr) Logger {
	return &SlogLogger{logger: l.logger.With(toSlogArgs(attrs)...)}
}
