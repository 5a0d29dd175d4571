// Package service holds testify mocks of the domain service ports, in mockery's expecter layout.
package service

import (
	"context"

	"beatmarket/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockPopularityCache is a mock of service.PopularityCache.
type MockPopularityCache struct {
	mock.Mock
}

type MockPopularityCache_Expecter struct {
	mock *mock.Mock
}

func (_m *MockPopularityCache) EXPECT() *MockPopularityCache_Expecter {
	return &MockPopularityCache_Expecter{mock: &_m.Mock}
}

func (_m *MockPopularityCache) Get(ctx context.Context, period entity.Period) ([]*entity.PopularBeat, bool, error) {
	ret := _m.Called(ctx, period)

	var ranking []*entity.PopularBeat
	if v, ok := ret.Get(0).([]*entity.PopularBeat); ok {
		ranking = v
	}

	return ranking, ret.Bool(1), ret.Error(2)
}

type MockPopularityCache_Get_Call struct {
	*mock.Call
}

func (_e *MockPopularityCache_Expecter) Get(ctx any, period any) *MockPopularityCache_Get_Call {
	return &MockPopularityCache_Get_Call{Call: _e.mock.On("Get", ctx, period)}
}

func (_c *MockPopularityCache_Get_Call) Return(ranking []*entity.PopularBeat, hit bool, err error) *MockPopularityCache_Get_Call {
	_c.Call.Return(ranking, hit, err)

	return _c
}

func (_m *MockPopularityCache) Set(ctx context.Context, period entity.Period, ranking []*entity.PopularBeat) error {
	return _m.Called(ctx, period, ranking).Error(0)
}

type MockPopularityCache_Set_Call struct {
	*mock.Call
}

func (_e *MockPopularityCache_Expecter) Set(ctx any, period any, ranking any) *MockPopularityCache_Set_Call {
	return &MockPopularityCache_Set_Call{Call: _e.mock.On("Set", ctx, period, ranking)}
}

func (_c *MockPopularityCache_Set_Call) Return(err error) *MockPopularityCache_Set_Call {
	_c.Call.Return(err)

	return _c
}

func (_m *MockPopularityCache) Invalidate(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

type MockPopularityCache_Invalidate_Call struct {
	*mock.Call
}

func (_e *MockPopularityCache_Expecter) Invalidate(ctx any) *MockPopularityCache_Invalidate_Call {
	return &MockPopularityCache_Invalidate_Call{Call: _e.mock.On("Invalidate", ctx)}
}

func (_c *MockPopularityCache_Invalidate_Call) Return(err error) *MockPopularityCache_Invalidate_Call {
	_c.Call.Return(err)

	return _c
}

func (_m *MockPopularityCache) Close() error {
	return _m.Called().Error(0)
}

// NewMockPopularityCache registers a cleanup that asserts every expectation was met.
func NewMockPopularityCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPopularityCache {
	m := &MockPopularityCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
