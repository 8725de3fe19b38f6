package repproducer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bafnalights-dot/stock/internal/converter"
	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/kafka"
)

type recordingProducer struct {
	sent []kafka.OutgoingMessage
	err  error
}

func (p *recordingProducer) Send(_ context.Context, msg kafka.OutgoingMessage) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func TestPublishReportRequest(t *testing.T) {
	t.Parallel()

	conv := converter.NewKafkaConverter()
	p := &recordingProducer{}
	svc := NewReportProducer(p, conv)

	req := model.ReportEmailRequest{
		RequestID:   uuid.New(),
		Email:       gofakeit.Email(),
		RequestedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, svc.PublishReportRequest(context.Background(), req))

	require.Len(t, p.sent, 1)
	assert.Equal(t, req.RequestID[:], p.sent[0].Key)

	got, err := conv.PayloadToReportRequest(p.sent[0].Value)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, req.Email, got.Email)
	assert.True(t, req.RequestedAt.Equal(got.RequestedAt))
}

func TestPublishReportRequestProducerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	svc := NewReportProducer(&recordingProducer{err: boom}, converter.NewKafkaConverter())

	err := svc.PublishReportRequest(context.Background(), model.ReportEmailRequest{RequestID: uuid.New()})
	assert.ErrorIs(t, err, boom)
}
