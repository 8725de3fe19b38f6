package converter

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bafnalights-dot/stock/internal/model"
)

func TestReportRequestPayload(t *testing.T) {
	t.Parallel()

	conv := NewKafkaConverter()
	req := model.ReportEmailRequest{
		RequestID:   uuid.New(),
		Email:       gofakeit.Email(),
		RequestedAt: time.Date(2026, 5, 1, 8, 30, 0, 123, time.UTC),
	}

	payload, err := conv.ReportRequestToPayload(req)
	require.NoError(t, err)

	got, err := conv.PayloadToReportRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, req.Email, got.Email)
	assert.True(t, req.RequestedAt.Equal(got.RequestedAt))
}

func TestPayloadToReportRequestRejects(t *testing.T) {
	t.Parallel()

	conv := NewKafkaConverter()

	encode := func(fields map[string]any) []byte {
		pb, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		b, err := proto.Marshal(pb)
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "garbage", payload: []byte{0xff, 0xff, 0xff}},
		{name: "bad uuid", payload: encode(map[string]any{"request_uuid": "x", "email": "a@b.c", "requested_at": time.Now().Format(time.RFC3339Nano)})},
		{name: "no email", payload: encode(map[string]any{"request_uuid": uuid.NewString(), "requested_at": time.Now().Format(time.RFC3339Nano)})},
		{name: "bad time", payload: encode(map[string]any{"request_uuid": uuid.NewString(), "email": "a@b.c", "requested_at": "yesterday"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := conv.PayloadToReportRequest(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestMovementToPayload(t *testing.T) {
	t.Parallel()

	m := model.StockMovement{
		ID:          uuid.New(),
		Ref:         model.StockRef{Type: model.EntityPart, ID: uuid.New()},
		Delta:       decimal.RequireFromString("-2.5"),
		Balance:     decimal.RequireFromString("7.5"),
		Reason:      model.ReasonAssemblyConsume,
		ReferenceID: uuid.New(),
		CreatedAt:   time.Now(),
	}

	payload, err := NewKafkaConverter().MovementToPayload(m)
	require.NoError(t, err)

	var pb structpb.Struct
	require.NoError(t, proto.Unmarshal(payload, &pb))
	fields := pb.GetFields()
	assert.Equal(t, "part", fields["entity_type"].GetStringValue())
	assert.Equal(t, "-2.5", fields["delta"].GetStringValue())
	assert.Equal(t, "7.5", fields["balance"].GetStringValue())
	assert.Equal(t, "assembly_consume", fields["reason"].GetStringValue())
	assert.Equal(t, m.ReferenceID.String(), fields["reference_uuid"].GetStringValue())
}
