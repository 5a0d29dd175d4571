package service

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockQRCodeService is a mock of service.QRCodeService.
type MockQRCodeService struct {
	mock.Mock
}

type MockQRCodeService_Expecter struct {
	mock *mock.Mock
}

func (_m *MockQRCodeService) EXPECT() *MockQRCodeService_Expecter {
	return &MockQRCodeService_Expecter{mock: &_m.Mock}
}

func (_m *MockQRCodeService) GenerateBeatShareQR(beatID uuid.UUID) ([]byte, error) {
	ret := _m.Called(beatID)

	var png []byte
	if v, ok := ret.Get(0).([]byte); ok {
		png = v
	}

	return png, ret.Error(1)
}

type MockQRCodeService_GenerateBeatShareQR_Call struct {
	*mock.Call
}

func (_e *MockQRCodeService_Expecter) GenerateBeatShareQR(beatID any) *MockQRCodeService_GenerateBeatShareQR_Call {
	return &MockQRCodeService_GenerateBeatShareQR_Call{Call: _e.mock.On("GenerateBeatShareQR", beatID)}
}

func (_c *MockQRCodeService_GenerateBeatShareQR_Call) Return(png []byte, err error) *MockQRCodeService_GenerateBeatShareQR_Call {
	_c.Call.Return(png, err)

	return _c
}

func (_m *MockQRCodeService) ParseBeatShareQR(qrData string) (uuid.UUID, error) {
	ret := _m.Called(qrData)

	var id uuid.UUID
	if v, ok := ret.Get(0).(uuid.UUID); ok {
		id = v
	}

	return id, ret.Error(1)
}

type MockQRCodeService_ParseBeatShareQR_Call struct {
	*mock.Call
}

func (_e *MockQRCodeService_Expecter) ParseBeatShareQR(qrData any) *MockQRCodeService_ParseBeatShareQR_Call {
	return &MockQRCodeService_ParseBeatShareQR_Call{Call: _e.mock.On("ParseBeatShareQR", qrData)}
}

func (_c *MockQRCodeService_ParseBeatShareQR_Call) Return(id uuid.UUID, err error) *MockQRCodeService_ParseBeatShareQR_Call {
	_c.Call.Return(id, err)

	return _c
}

// NewMockQRCodeService registers a cleanup that asserts every expectation was met.
func NewMockQRCodeService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQRCodeService {
	m := &MockQRCodeService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
