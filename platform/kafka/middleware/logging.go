package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bafnalights-dot/stock/platform/kafka"
)

// EventTypeHeader names the record header carrying the event kind.
const EventTypeHeader = "event_type"

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Warn(ctx context.Context, msg string, fields ...zap.Field)
}

// Logging reports every handled record. Failed records are logged at warn level
// with the handler error.
func Logging(logger Logger) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)

			fields := []zap.Field{
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.String("key", string(msg.Key)),
				zap.Duration("took", time.Since(start)),
			}
			if et := msg.Header(EventTypeHeader); et != "" {
				fields = append(fields, zap.String(EventTypeHeader, et))
			}

			if err != nil {
				logger.Warn(ctx, "Kafka msg failed", append(fields, zap.Error(err))...)
				return err
			}
			logger.Info(ctx, "Kafka msg handled", fields...)
			return nil
		}
	}
}
