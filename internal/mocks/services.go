package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/slug-swap-api/internal/service"
)

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Counts     map[string]int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{
		Counts: map[string]int{
			"categories": 0,
			"posts":      0,
			"slug_swaps": 0,
		},
	}
}

func (m *MockExportService) StreamSlugSwaps(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context, resource string) (int, error) {
	return m.Counts[resource], nil
}

// MockReconcileService is a mock implementation of ReconcileService
type MockReconcileService struct {
	mu      sync.Mutex
	Pruned  int64
	Err     error
	Runs    int
	Started bool
}

// Verify interface compliance
var _ service.ReconcileService = (*MockReconcileService)(nil)

func NewMockReconcileService() *MockReconcileService {
	return &MockReconcileService{}
}

func (m *MockReconcileService) StartProcessor(ctx context.Context) {
	m.mu.Lock()
	m.Started = true
	m.mu.Unlock()
}

func (m *MockReconcileService) StopProcessor() {
	m.mu.Lock()
	m.Started = false
	m.mu.Unlock()
}

func (m *MockReconcileService) RunOnce(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs++
	return m.Pruned, m.Err
}
