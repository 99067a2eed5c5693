package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

type MockBackendRepository struct {
	mock.Mock
}

var _ repository.BackendRepositoryInterface = (*MockBackendRepository)(nil)

func (m *MockBackendRepository) Create(ctx context.Context, backend *models.PrestashopBackend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PrestashopBackend, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PrestashopBackend), args.Error(1)
}

func (m *MockBackendRepository) List(ctx context.Context, opts repository.BackendListOptions) ([]models.PrestashopBackend, int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]models.PrestashopBackend), args.Get(1).(int64), args.Error(2)
}

func (m *MockBackendRepository) Update(ctx context.Context, backend *models.PrestashopBackend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BackendStatus, lastError string) error {
	args := m.Called(ctx, id, status, lastError)
	return args.Error(0)
}

func (m *MockBackendRepository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRunRepository struct {
	mock.Mock
}

var _ repository.RunRepositoryInterface = (*MockRunRepository)(nil)

func (m *MockRunRepository) CreateRun(ctx context.Context, run *models.ImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetRunByID(ctx context.Context, id uuid.UUID) (*models.ImportRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportRun), args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, opts repository.RunListOptions) ([]models.ImportRun, int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]models.ImportRun), args.Get(1).(int64), args.Error(2)
}

func (m *MockRunRepository) UpdateRun(ctx context.Context, run *models.ImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateRunState(ctx context.Context, id uuid.UUID, state models.RunState, errorMessage string) error {
	args := m.Called(ctx, id, state, errorMessage)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateRunCounters(ctx context.Context, id uuid.UUID, counters models.Counters) error {
	args := m.Called(ctx, id, counters)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateRunReport(ctx context.Context, id uuid.UUID, report models.JSONB) error {
	args := m.Called(ctx, id, report)
	return args.Error(0)
}

func (m *MockRunRepository) GetActiveRuns(ctx context.Context, backendID uuid.UUID, entity models.EntityType) ([]models.ImportRun, error) {
	args := m.Called(ctx, backendID, entity)
	return args.Get(0).([]models.ImportRun), args.Error(1)
}

func (m *MockRunRepository) CreateLog(ctx context.Context, log *models.ImportRunLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRunRepository) GetRunLogs(ctx context.Context, runID uuid.UUID, opts repository.LogListOptions) ([]models.ImportRunLog, error) {
	args := m.Called(ctx, runID, opts)
	return args.Get(0).([]models.ImportRunLog), args.Error(1)
}
