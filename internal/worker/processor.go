package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/cuongbtq/failure-notifier/internal/notification"
	"github.com/cuongbtq/failure-notifier/internal/worker/domain"
)

// processEvent sends the notification for one failure event. A backend
// without a channel drops the event; sender errors are retryable.
func (w *Worker) processEvent(ctx context.Context, event *failure.Event) error {
	record, err := w.enrich(ctx, event)
	if err != nil {
		return err
	}

	if w.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.sendTimeout)
		defer cancel()
	}

	err = w.notifier.Save(ctx, event.ID, record)
	switch {
	case errors.Is(err, failure.ErrNotConfigured):
		w.logger.Warn("Notifications are not configured, dropping failure event",
			slog.String("failure_id", event.ID),
		)
		return nil
	case err != nil:
		return domain.NewRetryableError(fmt.Errorf("failed to notify failure %s: %w", event.ID, err))
	}

	return nil
}

// enrich fills a missing worker name or payload from the jobs table
func (w *Worker) enrich(ctx context.Context, event *failure.Event) (notification.FailureRecord, error) {
	record := event.Record()

	if w.jobs == nil || event.JobID == "" {
		return record, nil
	}
	if record.Worker != "" && record.Payload != nil {
		return record, nil
	}

	job, err := w.jobs.GetJobByID(ctx, event.JobID)
	if errors.Is(err, domain.ErrJobNotFound) {
		w.logger.Warn("Failed job not found, notifying without enrichment",
			slog.String("failure_id", event.ID),
			slog.String("job_id", event.JobID),
		)
		return record, nil
	}
	if err != nil {
		return record, domain.NewRetryableError(fmt.Errorf("failed to load job %s: %w", event.JobID, err))
	}

	if record.Worker == "" {
		record.Worker = job.JobType
	}

	if record.Payload == nil {
		payload, err := job.DecodedPayload()
		if err != nil {
			w.logger.Warn("Ignoring undecodable job payload",
				slog.String("job_id", event.JobID),
				slog.Any("error", err),
			)
		} else {
			record.Payload = payload
		}
	}

	return record, nil
}
