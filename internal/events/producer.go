package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

// Producer appends order lifecycle transitions to the audit topic. Orders are
// never deleted; the event stream is the append-only trail that downstream
// consumers (notifications, reconciliation) read.
type Producer struct {
	logger *slog.Logger
	writer *kafka.Writer
}

func NewProducer(logger *slog.Logger, cfg config.Kafka) *Producer {
	return &Producer{
		logger: logger.With(slog.String("component", "events")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *Producer) PublishOrderEvent(ctx context.Context, evt entities.OrderEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	// Keyed by order id so per-order ordering is preserved.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
