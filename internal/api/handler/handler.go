package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/failure-notifier/internal/notification"
)

// EventPublisher publishes a message to the failures exchange
type EventPublisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Publisher   EventPublisher
	ServiceName string

	// Defaults for previews that do not name a level or block size
	DefaultLevel         notification.Level
	DefaultMaxBlockChars int
}

// NotificationHandler renders notification previews
type NotificationHandler struct {
	logger        *slog.Logger
	defaultLevel  notification.Level
	maxBlockChars int
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(deps *Dependencies) *NotificationHandler {
	maxBlockChars := deps.DefaultMaxBlockChars
	if maxBlockChars <= 0 {
		maxBlockChars = notification.DefaultMaxBlockChars
	}

	return &NotificationHandler{
		logger:        deps.Logger,
		defaultLevel:  deps.DefaultLevel.Normalize(),
		maxBlockChars: maxBlockChars,
	}
}

// FailureHandler accepts failure reports and queues them for notification
type FailureHandler struct {
	logger    *slog.Logger
	publisher EventPublisher
}

// NewFailureHandler creates a new FailureHandler instance
func NewFailureHandler(deps *Dependencies) *FailureHandler {
	return &FailureHandler{
		logger:    deps.Logger,
		publisher: deps.Publisher,
	}
}
