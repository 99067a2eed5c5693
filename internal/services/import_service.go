package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prestashop-importer-service/internal/importer"
	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

// EntityRunner executes one entity import end to end
type EntityRunner interface {
	ImportCustomers(ctx context.Context) (models.Counters, importer.Outcome, error)
	ImportCategories(ctx context.Context) (models.Counters, importer.Outcome, error)
	ImportProducts(ctx context.Context) (models.Counters, importer.Outcome, error)
	ImportGroups(ctx context.Context) (models.Counters, importer.Outcome, error)
}

// RunnerFactory builds a runner bound to one backend and run. The factory is
// expected to give each run its own database session.
type RunnerFactory func(backend *models.PrestashopBackend, runID uuid.UUID) EntityRunner

// ImportService orchestrates background import runs
type ImportService struct {
	backends  repository.BackendRepositoryInterface
	runs      repository.RunRepositoryInterface
	runnerFor RunnerFactory
	logger    *logrus.Logger

	mu         sync.RWMutex
	activeRuns map[uuid.UUID]context.CancelFunc
}

// NewImportService creates a new import service
func NewImportService(backends repository.BackendRepositoryInterface, runs repository.RunRepositoryInterface, runnerFor RunnerFactory, logger *logrus.Logger) *ImportService {
	return &ImportService{
		backends:   backends,
		runs:       runs,
		runnerFor:  runnerFor,
		logger:     logger,
		activeRuns: make(map[uuid.UUID]context.CancelFunc),
	}
}

// StartRun creates an import run and launches it in the background. The
// caller gets the pending run back immediately.
func (s *ImportService) StartRun(ctx context.Context, backendID uuid.UUID, entity models.EntityType, triggeredBy string) (*models.ImportRun, error) {
	switch entity {
	case models.EntityCustomers, models.EntityCategories, models.EntityProducts, models.EntityGroups:
	default:
		return nil, fmt.Errorf("unknown import entity: %s", entity)
	}

	backend, err := s.backends.GetByID(ctx, backendID)
	if err != nil {
		return nil, err
	}
	if !backend.IsEnabled {
		return nil, fmt.Errorf("backend %s is disabled", backend.Name)
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}

	active, err := s.runs.GetActiveRuns(ctx, backendID, entity)
	if err != nil {
		return nil, fmt.Errorf("checking active runs: %w", err)
	}
	if len(active) > 0 {
		return nil, fmt.Errorf("a %s import is already running for this backend", entity)
	}

	run := &models.ImportRun{
		ID:          uuid.New(),
		TenantID:    backend.TenantID,
		BackendID:   backend.ID,
		Entity:      entity,
		State:       models.RunPending,
		TriggeredBy: triggeredBy,
	}
	run.SetCounters(models.Counters{})
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	// The run outlives the HTTP request; it gets its own lifecycle context
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.activeRuns[run.ID] = cancel
	s.mu.Unlock()

	go s.runImport(runCtx, backend, run)

	return run, nil
}

// CancelRun requests cooperative cancellation of an active run
func (s *ImportService) CancelRun(ctx context.Context, runID uuid.UUID) error {
	s.mu.RLock()
	cancel, ok := s.activeRuns[runID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run %s is not active", runID)
	}
	cancel()
	return nil
}

// GetRun retrieves a run by ID
func (s *ImportService) GetRun(ctx context.Context, runID uuid.UUID) (*models.ImportRun, error) {
	return s.runs.GetRunByID(ctx, runID)
}

// ListRuns retrieves runs for a tenant
func (s *ImportService) ListRuns(ctx context.Context, tenantID string, opts *repository.RunListOptions) ([]models.ImportRun, int64, error) {
	if opts == nil {
		opts = &repository.RunListOptions{}
	}
	opts.TenantID = tenantID
	return s.runs.ListRuns(ctx, *opts)
}

// GetRunLogs retrieves the log lines of a run
func (s *ImportService) GetRunLogs(ctx context.Context, runID uuid.UUID, opts repository.LogListOptions) ([]models.ImportRunLog, error) {
	return s.runs.GetRunLogs(ctx, runID, opts)
}

// runImport is the background worker for one run. It must never crash the
// process: panics become a failed run with a critical-error report.
func (s *ImportService) runImport(ctx context.Context, backend *models.PrestashopBackend, run *models.ImportRun) {
	logger := s.logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"backend_id": backend.ID,
		"entity":     run.Entity,
	})

	defer func() {
		s.mu.Lock()
		delete(s.activeRuns, run.ID)
		s.mu.Unlock()

		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Import worker panicked")
			report := importer.BuildFailureReport(run.Entity, fmt.Sprintf("internal error: %v", r))
			s.finishRun(run.ID, models.RunFailed, fmt.Sprintf("panic: %v", r), report, logger)
		}
	}()

	if err := s.runs.UpdateRunState(ctx, run.ID, models.RunRunning, ""); err != nil {
		logger.WithError(err).Error("Failed to mark run as running")
		return
	}
	logger.Info("Import run started")

	runner := s.runnerFor(backend, run.ID)

	var counters models.Counters
	var outcome importer.Outcome
	var err error
	switch run.Entity {
	case models.EntityCustomers:
		counters, outcome, err = runner.ImportCustomers(ctx)
	case models.EntityCategories:
		counters, outcome, err = runner.ImportCategories(ctx)
	case models.EntityProducts:
		counters, outcome, err = runner.ImportProducts(ctx)
	case models.EntityGroups:
		counters, outcome, err = runner.ImportGroups(ctx)
	}

	if uerr := s.runs.UpdateRunCounters(context.Background(), run.ID, counters); uerr != nil {
		logger.WithError(uerr).Warn("Failed to persist final counters")
	}

	switch {
	case err != nil && ctx.Err() != nil:
		report := importer.BuildFailureReport(run.Entity, "import cancelled by operator")
		s.finishRun(run.ID, models.RunCancelled, "cancelled", report, logger)
	case err != nil:
		report := importer.BuildFailureReport(run.Entity, err.Error())
		s.finishRun(run.ID, models.RunFailed, err.Error(), report, logger)
		if uerr := s.backends.UpdateStatus(context.Background(), backend.ID, models.BackendError, err.Error()); uerr != nil {
			logger.WithError(uerr).Warn("Failed to update backend status")
		}
	case outcome == importer.OutcomeAborted:
		report := importer.BuildReport(run.Entity, counters, outcome)
		s.finishRun(run.ID, models.RunAborted, "error threshold exceeded", report, logger)
	default:
		report := importer.BuildReport(run.Entity, counters, outcome)
		s.finishRun(run.ID, models.RunCompleted, "", report, logger)
		if uerr := s.backends.UpdateStatus(context.Background(), backend.ID, models.BackendConnected, ""); uerr != nil {
			logger.WithError(uerr).Warn("Failed to update backend status")
		}
		if uerr := s.backends.MarkSynced(context.Background(), backend.ID); uerr != nil {
			logger.WithError(uerr).Warn("Failed to stamp last sync time")
		}
	}
}

// finishRun moves the run to a terminal state with its report. Uses a fresh
// context: the run context may already be cancelled.
func (s *ImportService) finishRun(runID uuid.UUID, state models.RunState, errorMessage string, report importer.Report, logger *logrus.Entry) {
	ctx := context.Background()
	if err := s.runs.UpdateRunState(ctx, runID, state, errorMessage); err != nil {
		logger.WithError(err).Error("Failed to finalize run state")
	}
	if err := s.runs.UpdateRunReport(ctx, runID, report.ToJSONB()); err != nil {
		logger.WithError(err).Error("Failed to store run report")
	}
	logger.WithFields(logrus.Fields{
		"state":    state,
		"severity": report.Severity,
	}).Info("Import run finished")
}
