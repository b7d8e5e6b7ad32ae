package app

import (
	"context"
	"encoding/json"

	"github.com/ipfolio/ipfolio/internal/config"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/database/postgres"
	"github.com/ipfolio/ipfolio/internal/infrastructure/database/postgres/repositories"
	"github.com/ipfolio/ipfolio/internal/infrastructure/messaging/kafka"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
)

// Worker consumes the patent event topic and persists each event as a
// notification row.
type Worker struct {
	pool     *postgres.Pool
	consumer *kafka.Consumer
	logger   logging.Logger
}

// NewWorker wires the event-recording worker.
func NewWorker(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Worker, error) {
	pool, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	notifications := repositories.NewNotificationRepository(pool.Pool)
	handler := RecordEventHandler(notifications)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Worker, handler, logger)

	return &Worker{pool: pool, consumer: consumer, logger: logger.Named("worker")}, nil
}

// RecordEventHandler persists one consumed event as a notification.
func RecordEventHandler(notifications *repositories.NotificationRepository) kafka.EventHandler {
	return func(ctx context.Context, ev domain.Event) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		return notifications.Record(ctx, &repositories.Notification{
			EventType: ev.Type,
			PatentID:  ev.PatentID,
			ActorID:   ev.ActorID,
			Payload:   payload,
		})
	}
}

// Run consumes until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("event worker started")
	return w.consumer.Run(ctx)
}

// Close shuts the consumer and the database pool down.
func (w *Worker) Close() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Warn("closing consumer", logging.Err(err))
	}
	w.pool.Close()
}
