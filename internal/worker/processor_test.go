package worker

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/cuongbtq/failure-notifier/internal/worker/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobID = "6f1c2b9e-8a0d-4a52-b3a4-2f5f3e7d9c10"

func newTestWorker(notifier Notifier, jobs JobLookup) *Worker {
	cfg := &Config{
		Logger:      discardLogger(),
		Notifier:    notifier,
		WorkerID:    "notifier-test",
		Concurrency: 1,
		SendTimeout: time.Second,
	}
	if jobs != nil {
		cfg.Jobs = jobs
	}
	return NewWorker(cfg)
}

func TestWorker_ProcessEventEnrichment(t *testing.T) {
	reportJob := &domain.Job{
		JobID:   jobID,
		JobType: "ReportJob",
		Payload: sql.NullString{Valid: true, String: `{"report_id": 7}`},
	}

	tests := []struct {
		name        string
		event       *failure.Event
		jobs        *fakeJobs
		wantWorker  string
		wantPayload any
		wantErr     bool
	}{
		{
			name:        "fills worker and payload from the jobs table",
			event:       &failure.Event{ID: "f-1", JobID: jobID, Queue: "reports"},
			jobs:        &fakeJobs{jobs: map[string]*domain.Job{jobID: reportJob}},
			wantWorker:  "ReportJob",
			wantPayload: map[string]any{"report_id": float64(7)},
		},
		{
			name:        "keeps fields present on the event",
			event:       &failure.Event{ID: "f-2", JobID: jobID, Worker: "Custom", Payload: "inline"},
			jobs:        &fakeJobs{err: errors.New("must not be called")},
			wantWorker:  "Custom",
			wantPayload: "inline",
		},
		{
			name:       "missing job row notifies without enrichment",
			event:      &failure.Event{ID: "f-3", JobID: jobID, Worker: "w1"},
			jobs:       &fakeJobs{},
			wantWorker: "w1",
		},
		{
			name:    "database errors are retryable",
			event:   &failure.Event{ID: "f-4", JobID: jobID},
			jobs:    &fakeJobs{err: errors.New("connection refused")},
			wantErr: true,
		},
		{
			name: "undecodable payload is ignored",
			event: &failure.Event{ID: "f-5", JobID: jobID},
			jobs: &fakeJobs{jobs: map[string]*domain.Job{jobID: {
				JobID:   jobID,
				JobType: "ReportJob",
				Payload: sql.NullString{Valid: true, String: "{"},
			}}},
			wantWorker: "ReportJob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := newFakeNotifier()
			w := newTestWorker(notifier, tt.jobs)

			err := w.processEvent(context.Background(), tt.event)

			if tt.wantErr {
				var retryable *domain.RetryableError
				require.ErrorAs(t, err, &retryable)
				assert.Empty(t, notifier.records)
				return
			}

			require.NoError(t, err)
			record, ok := notifier.records[tt.event.ID]
			require.True(t, ok)
			assert.Equal(t, tt.wantWorker, record.Worker)
			assert.Equal(t, tt.wantPayload, record.Payload)
		})
	}
}

func TestWorker_ProcessEventWithoutJobLookup(t *testing.T) {
	notifier := newFakeNotifier()
	w := newTestWorker(notifier, nil)

	err := w.processEvent(context.Background(), &failure.Event{ID: "f-1", JobID: jobID})
	require.NoError(t, err)

	assert.Equal(t, "", notifier.records["f-1"].Worker)
}

func TestWorker_ProcessEventSendError(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.errs["f-1"] = errors.New("webhook unavailable")
	w := newTestWorker(notifier, nil)

	err := w.processEvent(context.Background(), &failure.Event{ID: "f-1", Worker: "w1"})

	var retryable *domain.RetryableError
	require.ErrorAs(t, err, &retryable)
	assert.Contains(t, err.Error(), "webhook unavailable")
}
