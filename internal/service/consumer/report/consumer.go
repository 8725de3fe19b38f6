package repconsumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/kafka"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type Converter interface {
	PayloadToReportRequest(data []byte) (model.ReportEmailRequest, error)
}

type Service interface {
	SendEmailReport(ctx context.Context, req model.ReportEmailRequest) error
}

type service struct {
	consumer kafka.Consumer
	conv     Converter
	svc      Service
}

func NewReportConsumer(
	consumer kafka.Consumer,
	conv Converter,
	svc Service,
) *service {
	return &service{consumer: consumer, conv: conv, svc: svc}
}

func (s *service) RunReportRequestConsume(ctx context.Context) error {
	logger.Info(ctx, "Starting report request consumer")

	if err := s.consumer.Consume(ctx, s.reportRequestHandler); err != nil {
		logger.Error(ctx, "Consume from report.requested topic error", logger.ErrorF(err))
		return err
	}

	return nil
}

func (s *service) reportRequestHandler(ctx context.Context, msg kafka.Message) error {
	req, err := s.conv.PayloadToReportRequest(msg.Value)
	if err != nil {
		logger.Error(ctx, "Failed to decode report request", logger.ErrorF(err))
		return fmt.Errorf("converter payload_to_report_request error: %w", err)
	}

	if err := s.svc.SendEmailReport(ctx, req); err != nil {
		// A delivery to the same address is already running; this one is redundant.
		if errors.Is(err, model.ErrServiceBusy) {
			logger.Warn(ctx, "report delivery already in progress",
				logger.String("request_id", req.RequestID.String()))
			return nil
		}
		logger.Error(ctx, "consumer.SendEmailReport", logger.ErrorF(err))
		return err
	}

	return nil
}
