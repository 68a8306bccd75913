package failure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// LogSender writes notification blocks to a logger instead of a chat.
// It is used for dry runs and local development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "Notification block",
		slog.String("failure_id", msg.FailureID),
		slog.String("channel", msg.Channel),
		slog.Int("seq", msg.Seq),
		slog.Int("total", msg.Total),
		slog.String("text", msg.Text),
	)
	return nil
}

// Publisher publishes a message body to an exchange
type Publisher interface {
	PublishTo(ctx context.Context, exchange, routingKey string, body []byte, contentType string) error
}

// PublishSender hands blocks to the chat integration through a message broker.
// The routing key is the channel so consumers can bind per destination.
type PublishSender struct {
	publisher Publisher
	exchange  string
}

// NewPublishSender creates a PublishSender publishing to exchange
func NewPublishSender(publisher Publisher, exchange string) *PublishSender {
	return &PublishSender{publisher: publisher, exchange: exchange}
}

// Send implements Sender
func (s *PublishSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification block: %w", err)
	}

	if err := s.publisher.PublishTo(ctx, s.exchange, msg.Channel, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish notification block: %w", err)
	}
	return nil
}
