package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ipfolio/ipfolio/internal/config"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
)

// reader abstracts kafka.Reader for testing.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventHandler processes one consumed patent event. A returned error triggers
// the retry policy; after the retries are exhausted the message is committed
// anyway so one poison message cannot stall the partition.
type EventHandler func(ctx context.Context, ev domain.Event) error

// Consumer reads the patent event topic in a consumer group and dispatches
// each event to the handler.
type Consumer struct {
	reader     reader
	handler    EventHandler
	maxRetries int
	backoff    time.Duration
	logger     logging.Logger
}

// NewConsumer joins the configured consumer group on the patent event topic.
func NewConsumer(cfg config.KafkaConfig, worker config.WorkerConfig, handler EventHandler, logger logging.Logger) *Consumer {
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicPatentEvents,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})
	return &Consumer{
		reader:     r,
		handler:    handler,
		maxRetries: worker.MaxRetries,
		backoff:    worker.RetryBackoff,
		logger:     logger.Named("kafka_consumer"),
	}
}

// Run consumes until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", logging.String("topic", TopicPatentEvents))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, io.EOF) {
				c.logger.Info("consumer stopped")
				return nil
			}
			return err
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if stderrors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("commit failed", logging.Err(err))
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var ev domain.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Error("dropping undecodable event",
			logging.Int64("offset", msg.Offset),
			logging.Err(err),
		)
		return
	}

	for attempt := 0; ; attempt++ {
		err := c.handler(ctx, ev)
		if err == nil {
			return
		}
		if attempt >= c.maxRetries {
			c.logger.Error("event handling failed, giving up",
				logging.String("event_type", ev.Type),
				logging.Int64("patent_id", ev.PatentID),
				logging.Int("attempts", attempt+1),
				logging.Err(err),
			)
			return
		}
		c.logger.Warn("event handling failed, retrying",
			logging.String("event_type", ev.Type),
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}

// Close shuts the group reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
