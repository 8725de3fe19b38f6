package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bafnalights-dot/stock/platform/kafka"
)

type ErrorLogger interface {
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

// Recovery turns a panic in the handler into an error so the offset is not marked.
func Recovery(logger ErrorLogger) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "Recovered from panic in message processing",
						zap.String("topic", msg.Topic),
						zap.Int32("partition", msg.Partition),
						zap.Int64("offset", msg.Offset),
						zap.Any("panic", r),
						zap.StackSkip("stack", 1),
					)
					err = fmt.Errorf("panic handling %s/%d@%d: %v", msg.Topic, msg.Partition, msg.Offset, r)
				}
			}()
			return next(ctx, msg)
		}
	}
}
