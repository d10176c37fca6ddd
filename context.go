package automation

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	LoggerContextKey      ContextKey = "logger"
	NotifierContextKey    ContextKey = "notifier"
	ExecutionIDContextKey ContextKey = "execution_id"
	NodeIDContextKey      ContextKey = "node_id"
)

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

func WithNotifier(ctx context.Context, notifier NotificationSink) context.Context {
	return context.WithValue(ctx, NotifierContextKey, notifier)
}

func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, ExecutionIDContextKey, executionID)
}

func WithNodeID(ctx context.Context, nodeID string) context.Context {
	return context.WithValue(ctx, NodeIDContextKey, nodeID)
}

func GetLoggerFromContext(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(LoggerContextKey).(*slog.Logger)
	return logger, ok
}

func GetNotifierFromContext(ctx context.Context) (NotificationSink, bool) {
	notifier, ok := ctx.Value(NotifierContextKey).(NotificationSink)
	return notifier, ok
}

func GetExecutionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ExecutionIDContextKey).(string)
	return id, ok
}

func GetNodeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(NodeIDContextKey).(string)
	return id, ok
}

// Notify sends a notification through the sink carried by the context. It
// does nothing when the context has no sink.
func Notify(ctx context.Context, severity Severity, text string) {
	if notifier, ok := GetNotifierFromContext(ctx); ok && notifier != nil {
		notifier.Notify(ctx, severity, text)
	}
}
