package failure

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/failure-notifier/internal/notification"
	"github.com/google/uuid"
)

// ErrInvalidEvent is returned for failure events that cannot be processed
var ErrInvalidEvent = errors.New("invalid failure event")

// Event is a job failure as published on the failures queue
type Event struct {
	ID        string                  `json:"id"`
	JobID     string                  `json:"job_id,omitempty"`
	Worker    string                  `json:"worker"`
	Queue     string                  `json:"queue"`
	Payload   any                     `json:"payload,omitempty"`
	Exception *notification.Exception `json:"exception,omitempty"`
	Backtrace []string                `json:"backtrace,omitempty"`
	FailedAt  time.Time               `json:"failed_at"`
}

// DecodeEvent parses and validates a JSON failure event
func DecodeEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	return &event, nil
}

// Validate checks that the event identifies the failed job
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Worker) == "" && e.JobID == "" {
		return fmt.Errorf("%w: worker or job_id is required", ErrInvalidEvent)
	}

	if e.JobID != "" {
		if _, err := uuid.Parse(e.JobID); err != nil {
			return fmt.Errorf("%w: job_id %q is not a UUID", ErrInvalidEvent, e.JobID)
		}
	}

	return nil
}

// Record converts the event into the record the formatter renders
func (e *Event) Record() notification.FailureRecord {
	return notification.FailureRecord{
		Worker:    e.Worker,
		Queue:     e.Queue,
		Payload:   e.Payload,
		Exception: e.Exception,
		Backtrace: e.Backtrace,
	}
}
