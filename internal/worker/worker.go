// Package worker consumes job failure events from RabbitMQ and turns each one
// into a chat notification.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/failure-notifier/internal/notification"
	"github.com/cuongbtq/failure-notifier/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliverySource starts a consumer on the failures queue
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Notifier delivers the notification for one failure
type Notifier interface {
	Save(ctx context.Context, failureID string, record notification.FailureRecord) error
}

// JobLookup loads the job a failure event refers to
type JobLookup interface {
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// Config holds worker configuration
type Config struct {
	Logger      *slog.Logger
	Source      DeliverySource
	Notifier    Notifier
	Jobs        JobLookup // optional
	WorkerID    string
	Concurrency int
	SendTimeout time.Duration
}

// Worker dispatches failure events to a pool of goroutines
type Worker struct {
	logger      *slog.Logger
	source      DeliverySource
	notifier    Notifier
	jobs        JobLookup
	workerID    string
	concurrency int
	sendTimeout time.Duration
	events      chan *domain.EventMessage
	wg          sync.WaitGroup
	started     atomic.Bool
}

// errAlreadyStarted is returned when Start is called on a worker that has
// already run; a Worker consumes at most once.
var errAlreadyStarted = errors.New("worker already started")

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := max(cfg.Concurrency, 1)

	return &Worker{
		logger:      cfg.Logger,
		source:      cfg.Source,
		notifier:    cfg.Notifier,
		jobs:        cfg.Jobs,
		workerID:    cfg.WorkerID,
		concurrency: concurrency,
		sendTimeout: cfg.SendTimeout,
		events:      make(chan *domain.EventMessage, concurrency),
	}
}

// Start consumes failure events until ctx is canceled or the broker closes
// the delivery channel. In-flight events keep being processed after Start
// returns; call Stop to wait for them.
func (w *Worker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("send_timeout", w.sendTimeout),
	)

	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		close(w.events)
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.spawnWorkerPool()

	err = w.dispatch(ctx, deliveries)
	close(w.events)

	return err
}

// Stop waits for in-flight events to finish, at most until ctx is done
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("Stopping worker, waiting for in-flight events")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for in-flight events: %w", ctx.Err())
	}
}
