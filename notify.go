package automation

import (
	"context"
	"log/slog"
	"sync"
)

// Severity of a user-facing notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// NotificationSink receives user-facing events announced by action handlers.
// Implementations must not assume the text is displayed synchronously and
// must be safe for concurrent use.
type NotificationSink interface {
	Notify(ctx context.Context, severity Severity, text string)
}

// NullNotificationSink discards all notifications.
type NullNotificationSink struct{}

func NewNullNotificationSink() *NullNotificationSink {
	return &NullNotificationSink{}
}

func (s *NullNotificationSink) Notify(ctx context.Context, severity Severity, text string) {}

// LoggerNotificationSink writes notifications to a structured logger.
type LoggerNotificationSink struct {
	logger *slog.Logger
}

func NewLoggerNotificationSink(logger *slog.Logger) *LoggerNotificationSink {
	return &LoggerNotificationSink{logger: logger}
}

func (s *LoggerNotificationSink) Notify(ctx context.Context, severity Severity, text string) {
	level := slog.LevelInfo
	if severity == SeverityError {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, text, "severity", string(severity))
}

// Notification is one recorded notification.
type Notification struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// NotificationRecorder keeps every notification in memory.
type NotificationRecorder struct {
	mutex         sync.Mutex
	notifications []Notification
}

func NewNotificationRecorder() *NotificationRecorder {
	return &NotificationRecorder{}
}

func (r *NotificationRecorder) Notify(ctx context.Context, severity Severity, text string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.notifications = append(r.notifications, Notification{Severity: severity, Text: text})
}

// Notifications returns a copy of the recorded notifications
func (r *NotificationRecorder) Notifications() []Notification {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	result := make([]Notification, len(r.notifications))
	copy(result, r.notifications)
	return result
}

// NotificationFanout forwards each notification to every sink.
type NotificationFanout []NotificationSink

func (f NotificationFanout) Notify(ctx context.Context, severity Severity, text string) {
	for _, sink := range f {
		sink.Notify(ctx, severity, text)
	}
}
