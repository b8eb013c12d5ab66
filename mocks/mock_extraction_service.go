package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvitto/internal/domain"
	"kvitto/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, input *service.ExtractInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionService) Reconcile(draft domain.DraftReceipt) domain.ReconciledReceipt {
	args := m.Called(draft)
	return args.Get(0).(domain.ReconciledReceipt)
}
