package service

import (
	"context"

	"beatmarket/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock of service.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

type MockEventPublisher_Expecter struct {
	mock *mock.Mock
}

func (_m *MockEventPublisher) EXPECT() *MockEventPublisher_Expecter {
	return &MockEventPublisher_Expecter{mock: &_m.Mock}
}

func (_m *MockEventPublisher) PublishPurchaseCompleted(ctx context.Context, event *service.PurchaseCompletedEvent) error {
	return _m.Called(ctx, event).Error(0)
}

type MockEventPublisher_PublishPurchaseCompleted_Call struct {
	*mock.Call
}

func (_e *MockEventPublisher_Expecter) PublishPurchaseCompleted(ctx any, event any) *MockEventPublisher_PublishPurchaseCompleted_Call {
	return &MockEventPublisher_PublishPurchaseCompleted_Call{Call: _e.mock.On("PublishPurchaseCompleted", ctx, event)}
}

func (_c *MockEventPublisher_PublishPurchaseCompleted_Call) Run(run func(ctx context.Context, event *service.PurchaseCompletedEvent)) *MockEventPublisher_PublishPurchaseCompleted_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args.Get(0).(context.Context), args.Get(1).(*service.PurchaseCompletedEvent))
	})

	return _c
}

func (_c *MockEventPublisher_PublishPurchaseCompleted_Call) Return(err error) *MockEventPublisher_PublishPurchaseCompleted_Call {
	_c.Call.Return(err)

	return _c
}

func (_m *MockEventPublisher) Close() error {
	return _m.Called().Error(0)
}

// NewMockEventPublisher registers a cleanup that asserts every expectation was met.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
