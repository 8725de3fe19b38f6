package converter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bafnalights-dot/stock/internal/model"
)

type kafkaConverter struct{}

func NewKafkaConverter() *kafkaConverter { return &kafkaConverter{} }

// MovementToPayload encodes a ledger movement as a protobuf Struct.
func (c *kafkaConverter) MovementToPayload(m model.StockMovement) ([]byte, error) {
	pb, err := structpb.NewStruct(map[string]any{
		"movement_uuid":  m.ID.String(),
		"entity_type":    string(m.Ref.Type),
		"entity_uuid":    m.Ref.ID.String(),
		"delta":          m.Delta.String(),
		"balance":        m.Balance.String(),
		"reason":         string(m.Reason),
		"reference_uuid": m.ReferenceID.String(),
		"created_at":     m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build movement record: %w", err)
	}

	payload, err := proto.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protobuf: %w", err)
	}
	return payload, nil
}

func (c *kafkaConverter) ReportRequestToPayload(req model.ReportEmailRequest) ([]byte, error) {
	pb, err := structpb.NewStruct(map[string]any{
		"request_uuid": req.RequestID.String(),
		"email":        req.Email,
		"requested_at": req.RequestedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build report request record: %w", err)
	}

	payload, err := proto.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protobuf: %w", err)
	}
	return payload, nil
}

func (c *kafkaConverter) PayloadToReportRequest(data []byte) (model.ReportEmailRequest, error) {
	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		return model.ReportEmailRequest{}, fmt.Errorf("failed to unmarshal protobuf: %w", err)
	}
	fields := pb.GetFields()

	id, err := uuid.Parse(fields["request_uuid"].GetStringValue())
	if err != nil {
		return model.ReportEmailRequest{}, fmt.Errorf("request_uuid: %w", err)
	}

	email := fields["email"].GetStringValue()
	if email == "" {
		return model.ReportEmailRequest{}, fmt.Errorf("email is empty")
	}

	requestedAt, err := time.Parse(time.RFC3339Nano, fields["requested_at"].GetStringValue())
	if err != nil {
		return model.ReportEmailRequest{}, fmt.Errorf("requested_at: %w", err)
	}

	return model.ReportEmailRequest{
		RequestID:   id,
		Email:       email,
		RequestedAt: requestedAt,
	}, nil
}
