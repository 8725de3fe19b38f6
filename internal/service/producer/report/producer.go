package repproducer

import (
	"context"
	"fmt"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/kafka"
)

type Converter interface {
	ReportRequestToPayload(req model.ReportEmailRequest) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewReportProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

func (s *service) PublishReportRequest(ctx context.Context, req model.ReportEmailRequest) error {
	payload, err := s.conv.ReportRequestToPayload(req)
	if err != nil {
		return fmt.Errorf("converter report_request_to_payload error: %w", err)
	}

	err = s.producer.Send(ctx, kafka.OutgoingMessage{
		Key:   req.RequestID[:],
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("producer to report.requested topic error: %w", err)
	}
	return nil
}
