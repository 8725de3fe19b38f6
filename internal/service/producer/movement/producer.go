package movproducer

import (
	"context"
	"fmt"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/kafka"
)

const eventTypeHeader = "event_type"

type Converter interface {
	MovementToPayload(m model.StockMovement) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewMovementProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

// PublishMovements sends one record per movement keyed by the stock entity,
// so a single entity's movements stay ordered within a partition.
func (s *service) PublishMovements(ctx context.Context, movements []model.StockMovement) error {
	for _, m := range movements {
		payload, err := s.conv.MovementToPayload(m)
		if err != nil {
			return fmt.Errorf("converter movement_to_payload error: %w", err)
		}

		err = s.producer.Send(ctx, kafka.OutgoingMessage{
			Key:     []byte(m.Ref.ID.String()),
			Value:   payload,
			Headers: map[string]string{eventTypeHeader: "stock." + string(m.Reason)},
		})
		if err != nil {
			return fmt.Errorf("producer to stock.movements topic error: %w", err)
		}
	}
	return nil
}
