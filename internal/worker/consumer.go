package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/cuongbtq/failure-notifier/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// errDeliveriesClosed is returned by Start when the broker closes the consumer
var errDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// dispatch decodes deliveries and hands them to the worker pool. Events that
// cannot be decoded are rejected without requeue.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return errDeliveriesClosed
			}

			event, err := failure.DecodeEvent(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting failure event",
					slog.Any("error", err),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK invalid event",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			msg := &domain.EventMessage{Event: event, Delivery: delivery}

			select {
			case w.events <- msg:
				w.logger.Debug("Failure event dispatched to worker pool",
					slog.String("failure_id", event.ID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching event")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK event on shutdown",
						slog.Any("error", nackErr),
					)
				}
				return nil
			}
		}
	}
}
