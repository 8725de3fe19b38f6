package consumer

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/bafnalights-dot/stock/platform/kafka"
)

type groupHandler struct {
	handler kafka.MessageHandler
	logger  Logger
}

func NewGroupHandler(handler kafka.MessageHandler, logger Logger, middlewares ...kafka.Middleware) *groupHandler {
	return &groupHandler{
		handler: kafka.Chain(handler, middlewares...),
		logger:  logger,
	}
}

func (g *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (g *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks a message only after the handler succeeded; failed messages are logged and skipped.
func (g *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				g.logger.Info(ctx, "Kafka message channel closed", zap.String("topic", claim.Topic()))
				return nil
			}

			if err := g.handler(ctx, toMessage(message)); err != nil {
				g.logger.Error(ctx, "Kafka handler error",
					zap.String("topic", message.Topic),
					zap.Int64("offset", message.Offset),
					zap.Error(err),
				)
				continue
			}

			session.MarkMessage(message, "")

		case <-ctx.Done():
			return nil
		}
	}
}

func toMessage(m *sarama.ConsumerMessage) kafka.Message {
	headers := make(map[string][]byte, len(m.Headers))
	for _, h := range m.Headers {
		if h != nil && h.Key != nil {
			headers[string(h.Key)] = h.Value
		}
	}

	return kafka.Message{
		Key:            m.Key,
		Value:          m.Value,
		Topic:          m.Topic,
		Partition:      m.Partition,
		Offset:         m.Offset,
		Timestamp:      m.Timestamp,
		BlockTimestamp: m.BlockTimestamp,
		Headers:        headers,
	}
}
