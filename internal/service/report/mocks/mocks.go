package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bafnalights-dot/stock/internal/model"
)

type MockMailer struct {
	mock.Mock
}

func NewMockMailer() *MockMailer { return &MockMailer{} }

func (m *MockMailer) Send(ctx context.Context, mail model.Mail) error {
	args := m.Called(ctx, mail)
	return args.Error(0)
}

type MockReportRequestPublisher struct {
	mock.Mock
}

func NewMockReportRequestPublisher() *MockReportRequestPublisher {
	return &MockReportRequestPublisher{}
}

func (m *MockReportRequestPublisher) PublishReportRequest(ctx context.Context, req model.ReportEmailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func NewMockLocker() *MockLocker { return &MockLocker{} }

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	unlock, _ := args.Get(0).(func(ctx context.Context) error)
	return unlock, args.Error(1)
}
