// Package redissink publishes workflow notifications to Redis. Each
// notification is sent on a pub/sub channel for live viewers and appended to
// a capped list so late viewers can read recent history.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deepnoodle-ai/automation"
	"github.com/deepnoodle-ai/automation/retry"
	"github.com/go-redis/redis/v8"
)

const (
	DefaultChannel    = "automation:notifications"
	DefaultHistoryKey = "automation:notifications:history"
	DefaultMaxHistory = 1000
)

// Message is the JSON payload published for each notification
type Message struct {
	ExecutionID string              `json:"executionId,omitempty"`
	NodeID      string              `json:"nodeId,omitempty"`
	Severity    automation.Severity `json:"severity"`
	Text        string              `json:"text"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Options configures a Sink
type Options struct {
	Client     *redis.Client
	Channel    string
	HistoryKey string
	MaxHistory int64
	Logger     *slog.Logger
}

// Sink is a NotificationSink backed by Redis
type Sink struct {
	client     *redis.Client
	channel    string
	historyKey string
	maxHistory int64
	logger     *slog.Logger
}

// New returns a sink publishing through the given client
func New(opts Options) (*Sink, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if opts.MaxHistory < 0 {
		return nil, fmt.Errorf("max history must not be negative")
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.HistoryKey == "" {
		opts.HistoryKey = DefaultHistoryKey
	}
	if opts.MaxHistory == 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sink{
		client:     opts.Client,
		channel:    opts.Channel,
		historyKey: opts.HistoryKey,
		maxHistory: opts.MaxHistory,
		logger:     opts.Logger,
	}, nil
}

// Channel returns the pub/sub channel notifications are published on
func (s *Sink) Channel() string {
	return s.channel
}

// Notify publishes the notification. Delivery failures are logged; they
// never fail the node that announced the notification.
func (s *Sink) Notify(ctx context.Context, severity automation.Severity, text string) {
	msg := Message{Severity: severity, Text: text, Timestamp: time.Now().UTC()}
	msg.ExecutionID, _ = automation.GetExecutionIDFromContext(ctx)
	msg.NodeID, _ = automation.GetNodeIDFromContext(ctx)

	if err := s.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error("failed to publish notification",
			"execution_id", msg.ExecutionID,
			"node_id", msg.NodeID,
			"error", err)
	}
}

// Publish sends one message to the channel and the history list
func (s *Sink) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return retry.Do(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Publish(ctx, s.channel, payload)
			pipe.RPush(ctx, s.historyKey, payload)
			pipe.LTrim(ctx, s.historyKey, -s.maxHistory, -1)
			return nil
		})
		if err != nil {
			return retry.NewRecoverableError(err)
		}
		return nil
	}, retry.WithMaxRetries(3), retry.WithBaseWait(50*time.Millisecond))
}

// History returns up to limit of the most recent notifications, oldest
// first. A limit of zero or less returns the whole retained history.
func (s *Sink) History(ctx context.Context, limit int64) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	values, err := s.client.LRange(ctx, s.historyKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notification history: %w", err)
	}
	messages := make([]Message, 0, len(values))
	for _, value := range values {
		var msg Message
		if err := json.Unmarshal([]byte(value), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Subscribe returns a subscription to the notification channel. Callers
// must close it.
func (s *Sink) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, s.channel)
}

// Decode parses a message received from a subscription
func Decode(msg *redis.Message) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode notification: %w", err)
	}
	return m, nil
}
