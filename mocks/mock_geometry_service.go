package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvitto/internal/port"
)

// MockGeometryService is a mock implementation of port.GeometryService.
type MockGeometryService struct {
	mock.Mock
}

func (m *MockGeometryService) ProcessReceipt(ctx context.Context, fileName string) (*port.ProcessResult, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ProcessResult), args.Error(1)
}

func (m *MockGeometryService) Healthy(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
