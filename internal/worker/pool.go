package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/failure-notifier/internal/worker/domain"
)

// spawnWorkerPool starts one goroutine per unit of concurrency
func (w *Worker) spawnWorkerPool() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

// workerLoop processes events until the events channel is closed. Processing
// is detached from the consumer context so that a shutdown lets in-flight
// notifications finish.
func (w *Worker) workerLoop(workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	logger := w.logger.With(slog.String("worker_name", workerName))

	for msg := range w.events {
		err := w.processEvent(context.Background(), msg.Event)

		if err != nil {
			requeue := shouldRequeue(err, msg.Delivery.Redelivered)

			logger.Error("Failure notification failed",
				slog.String("failure_id", msg.Event.ID),
				slog.Any("error", err),
				slog.Bool("requeue", requeue),
			)

			if nackErr := msg.Delivery.Nack(false, requeue); nackErr != nil {
				logger.Error("Failed to NACK message",
					slog.String("failure_id", msg.Event.ID),
					slog.Any("error", nackErr),
				)
			}
			continue
		}

		if ackErr := msg.Delivery.Ack(false); ackErr != nil {
			logger.Error("Failed to ACK message",
				slog.String("failure_id", msg.Event.ID),
				slog.Any("error", ackErr),
			)
		}
	}

	logger.Debug("Worker goroutine stopped")
}

// shouldRequeue requeues transient errors once; a redelivered event that
// fails again is dropped.
func shouldRequeue(err error, redelivered bool) bool {
	var retryableErr *domain.RetryableError
	if !errors.As(err, &retryableErr) {
		return false
	}
	return !redelivered
}
