package domain

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/failure-notifier/internal/failure"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Job is the subset of a jobs row used to enrich a failure event
type Job struct {
	JobID   string         `db:"job_id"`
	JobType string         `db:"job_type"`
	Payload sql.NullString `db:"payload"`
}

// DecodedPayload returns the JSON payload of the job, or nil when it has none
func (j *Job) DecodedPayload() (any, error) {
	if !j.Payload.Valid || j.Payload.String == "" {
		return nil, nil
	}

	var payload any
	if err := json.Unmarshal([]byte(j.Payload.String), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload of job %s: %w", j.JobID, err)
	}
	return payload, nil
}

// EventMessage is a decoded failure event paired with the delivery it came from
type EventMessage struct {
	Event    *failure.Event
	Delivery amqp.Delivery
}
