// Package failure delivers job failure notifications.
//
// A Backend resolves the verbosity level for a failure (per exception kind
// overrides first, then the configured default), formats it into message
// blocks and hands the blocks to a Sender one at a time, in order.
package failure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cuongbtq/failure-notifier/internal/notification"
)

// ErrNotConfigured is returned by Save when no channel is configured
var ErrNotConfigured = errors.New("failure backend is not configured")

// Config holds the notification settings of a Backend
type Config struct {
	Channel        string
	Level          notification.Level
	LevelOverrides map[string]notification.Level
	MaxBlockChars  int
}

// Sender delivers a single message block to a channel
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one block of a notification together with its position
type Message struct {
	FailureID string `json:"failure_id,omitempty"`
	Channel   string `json:"channel"`
	Seq       int    `json:"seq"`
	Total     int    `json:"total"`
	Text      string `json:"text"`
}

// Backend formats failure records and dispatches them through a Sender.
// It is safe for concurrent use; Apply swaps the configuration in place.
type Backend struct {
	mu     sync.RWMutex
	cfg    Config
	sender Sender
	logger *slog.Logger
}

// NewBackend creates a Backend
func NewBackend(cfg Config, sender Sender, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{sender: sender, logger: logger}
	b.Apply(cfg)
	return b
}

// Apply replaces the configuration used for subsequent failures
func (b *Backend) Apply(cfg Config) {
	overrides := make(map[string]notification.Level, len(cfg.LevelOverrides))
	for kind, level := range cfg.LevelOverrides {
		overrides[strings.TrimSpace(kind)] = level.Normalize()
	}
	cfg.LevelOverrides = overrides
	cfg.Level = cfg.Level.Normalize()
	if cfg.MaxBlockChars <= 0 {
		cfg.MaxBlockChars = notification.DefaultMaxBlockChars
	}

	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
}

func (b *Backend) config() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

// Configured reports whether a destination channel is set
func (b *Backend) Configured() bool {
	return strings.TrimSpace(b.config().Channel) != ""
}

// LevelFor returns the level for record: the override for its exception kind
// when one exists, the configured default otherwise.
func (b *Backend) LevelFor(record notification.FailureRecord) notification.Level {
	return b.config().levelFor(record)
}

func (c Config) levelFor(record notification.FailureRecord) notification.Level {
	if level, ok := c.LevelOverrides[record.ExceptionKind()]; ok && record.ExceptionKind() != "" {
		return level
	}
	return c.Level
}

// Text renders record into the blocks that Save would send
func (b *Backend) Text(record notification.FailureRecord) []string {
	cfg := b.config()
	return notification.Format(record, cfg.levelFor(record), cfg.MaxBlockChars)
}

// Save formats record and sends every block in order, stopping at the first
// block that fails.
func (b *Backend) Save(ctx context.Context, failureID string, record notification.FailureRecord) error {
	cfg := b.config()
	if strings.TrimSpace(cfg.Channel) == "" {
		return ErrNotConfigured
	}
	if b.sender == nil {
		return fmt.Errorf("failure backend has no sender")
	}

	level := cfg.levelFor(record)
	blocks := notification.Format(record, level, cfg.MaxBlockChars)
	if len(blocks) == 0 {
		b.logger.Warn("Failure record rendered no content, skipping",
			slog.String("failure_id", failureID),
		)
		return nil
	}

	for i, text := range blocks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failed to send block %d/%d: %w", i+1, len(blocks), err)
		}

		msg := Message{
			FailureID: failureID,
			Channel:   cfg.Channel,
			Seq:       i + 1,
			Total:     len(blocks),
			Text:      text,
		}
		if err := b.sender.Send(ctx, msg); err != nil {
			b.logger.Error("Failed to send notification block",
				slog.String("failure_id", failureID),
				slog.Int("seq", msg.Seq),
				slog.Int("total", msg.Total),
				slog.Any("error", err),
			)
			return fmt.Errorf("failed to send block %d/%d: %w", msg.Seq, msg.Total, err)
		}
	}

	b.logger.Info("Failure notification sent",
		slog.String("failure_id", failureID),
		slog.String("channel", cfg.Channel),
		slog.String("level", level.String()),
		slog.Int("blocks", len(blocks)),
	)

	return nil
}
