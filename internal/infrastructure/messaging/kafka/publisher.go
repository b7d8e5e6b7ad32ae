package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ipfolio/ipfolio/internal/config"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// writer abstracts kafka.Writer for testing.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes patent events to the event topic. It satisfies the patent
// service's EventPublisher contract; the service treats publish failures as
// non-fatal.
type Publisher struct {
	writer writer
	logger logging.Logger
	closed atomic.Bool
}

// NewPublisher builds a producer for the patent event topic. Messages are
// keyed by patent id so one aggregate's events stay ordered within a
// partition.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        TopicPatentEvents,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Publisher{writer: w, logger: logger.Named("kafka_publisher")}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeInternal, "publisher is closed")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "encoding patent event")
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.PatentID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing patent event")
	}
	p.logger.Debug("event published",
		logging.String("event_type", ev.Type),
		logging.Int64("patent_id", ev.PatentID),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
