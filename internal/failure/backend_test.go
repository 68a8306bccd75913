package failure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/cuongbtq/failure-notifier/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []Message
	failAt int // 1-based seq to fail on, 0 never
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt != 0 && msg.Seq == s.failAt {
		return errors.New("endpoint unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func sampleRecord(kind string) notification.FailureRecord {
	return notification.FailureRecord{
		Worker:    "worker-1",
		Queue:     "reports",
		Payload:   map[string]any{"class": "ReportJob"},
		Exception: &notification.Exception{Kind: kind, Message: "boom"},
		Backtrace: []string{"report_job.go:10", "runner.go:55", "main.go:3"},
	}
}

func TestBackend_Configured(t *testing.T) {
	assert.False(t, NewBackend(Config{}, &recordingSender{}, testLogger()).Configured())
	assert.False(t, NewBackend(Config{Channel: "   "}, &recordingSender{}, testLogger()).Configured())
	assert.True(t, NewBackend(Config{Channel: "#ops"}, &recordingSender{}, testLogger()).Configured())
}

func TestBackend_LevelFor(t *testing.T) {
	backend := NewBackend(Config{
		Channel: "#ops",
		Level:   notification.Minimal,
		LevelOverrides: map[string]notification.Level{
			"SignalException": notification.Compact,
			" Timeout ":       notification.Level(99),
		},
	}, &recordingSender{}, testLogger())

	tests := []struct {
		name     string
		record   notification.FailureRecord
		expected notification.Level
	}{
		{name: "default level", record: sampleRecord("RuntimeError"), expected: notification.Minimal},
		{name: "override by kind", record: sampleRecord("SignalException"), expected: notification.Compact},
		{name: "invalid override falls back to verbose", record: sampleRecord("Timeout"), expected: notification.Verbose},
		{name: "no exception uses default", record: notification.FailureRecord{Worker: "w"}, expected: notification.Minimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, backend.LevelFor(tt.record))
		})
	}
}

func TestBackend_InvalidDefaultLevelIsVerbose(t *testing.T) {
	backend := NewBackend(Config{Channel: "#ops", Level: notification.Level(12)}, &recordingSender{}, testLogger())
	assert.Equal(t, notification.Verbose, backend.LevelFor(sampleRecord("Boom")))
}

func TestBackend_Save(t *testing.T) {
	sender := &recordingSender{}
	backend := NewBackend(Config{Channel: "#ops", MaxBlockChars: 20}, sender, testLogger())
	record := sampleRecord("Boom")

	err := backend.Save(context.Background(), "f-1", record)
	require.NoError(t, err)

	expected := backend.Text(record)
	require.Len(t, sender.sent, len(expected))
	require.Greater(t, len(expected), 1)
	for i, msg := range sender.sent {
		assert.Equal(t, "f-1", msg.FailureID)
		assert.Equal(t, "#ops", msg.Channel)
		assert.Equal(t, i+1, msg.Seq)
		assert.Equal(t, len(expected), msg.Total)
		assert.Equal(t, expected[i], msg.Text)
	}
}

func TestBackend_SaveStopsAtFirstError(t *testing.T) {
	sender := &recordingSender{failAt: 2}
	backend := NewBackend(Config{Channel: "#ops", MaxBlockChars: 20}, sender, testLogger())

	err := backend.Save(context.Background(), "f-2", sampleRecord("Boom"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send block 2/")
	assert.Len(t, sender.sent, 1)
}

func TestBackend_SaveNotConfigured(t *testing.T) {
	sender := &recordingSender{}
	backend := NewBackend(Config{}, sender, testLogger())

	err := backend.Save(context.Background(), "f-3", sampleRecord("Boom"))

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, sender.sent)
}

func TestBackend_SaveEmptyRecord(t *testing.T) {
	sender := &recordingSender{}
	backend := NewBackend(Config{Channel: "#ops"}, sender, testLogger())

	require.NoError(t, backend.Save(context.Background(), "f-4", notification.FailureRecord{}))
	assert.Empty(t, sender.sent)
}

func TestBackend_SaveCanceledContext(t *testing.T) {
	sender := &recordingSender{}
	backend := NewBackend(Config{Channel: "#ops"}, sender, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := backend.Save(ctx, "f-5", sampleRecord("Boom"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sender.sent)
}

func TestBackend_Apply(t *testing.T) {
	backend := NewBackend(Config{Channel: "#ops", Level: notification.Verbose}, &recordingSender{}, testLogger())
	record := sampleRecord("SignalException")
	assert.Equal(t, notification.Verbose, backend.LevelFor(record))

	backend.Apply(Config{
		Channel:        "#ops",
		Level:          notification.Verbose,
		LevelOverrides: map[string]notification.Level{"SignalException": notification.Minimal},
	})

	assert.Equal(t, notification.Minimal, backend.LevelFor(record))
	assert.Equal(t, []string{"worker-1 failed processing reports\nPayload:\n\tclass: ReportJob"}, backend.Text(record))
}
