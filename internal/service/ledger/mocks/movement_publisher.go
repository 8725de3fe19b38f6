package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bafnalights-dot/stock/internal/model"
)

type MockMovementPublisher struct {
	mock.Mock
}

func NewMockMovementPublisher() *MockMovementPublisher { return &MockMovementPublisher{} }

func (m *MockMovementPublisher) PublishMovements(ctx context.Context, movements []model.StockMovement) error {
	args := m.Called(ctx, movements)
	return args.Error(0)
}
