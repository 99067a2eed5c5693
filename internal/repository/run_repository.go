package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// RunRepositoryInterface defines import run persistence operations
type RunRepositoryInterface interface {
	CreateRun(ctx context.Context, run *models.ImportRun) error
	GetRunByID(ctx context.Context, id uuid.UUID) (*models.ImportRun, error)
	ListRuns(ctx context.Context, opts RunListOptions) ([]models.ImportRun, int64, error)
	UpdateRun(ctx context.Context, run *models.ImportRun) error
	UpdateRunState(ctx context.Context, id uuid.UUID, state models.RunState, errorMessage string) error
	UpdateRunCounters(ctx context.Context, id uuid.UUID, counters models.Counters) error
	UpdateRunReport(ctx context.Context, id uuid.UUID, report models.JSONB) error
	GetActiveRuns(ctx context.Context, backendID uuid.UUID, entity models.EntityType) ([]models.ImportRun, error)
	CreateLog(ctx context.Context, log *models.ImportRunLog) error
	GetRunLogs(ctx context.Context, runID uuid.UUID, opts LogListOptions) ([]models.ImportRunLog, error)
}

// RunRepository handles database operations for import runs
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun creates a new import run
func (r *RunRepository) CreateRun(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// GetRunByID retrieves an import run by ID
func (r *RunRepository) GetRunByID(ctx context.Context, id uuid.UUID) (*models.ImportRun, error) {
	var run models.ImportRun
	err := r.db.WithContext(ctx).
		Preload("Backend").
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves import runs with pagination and filtering
func (r *RunRepository) ListRuns(ctx context.Context, opts RunListOptions) ([]models.ImportRun, int64, error) {
	var runs []models.ImportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ImportRun{})

	if opts.TenantID != "" {
		query = query.Where("tenant_id = ?", opts.TenantID)
	}
	if opts.BackendID != uuid.Nil {
		query = query.Where("backend_id = ?", opts.BackendID)
	}
	if opts.Entity != "" {
		query = query.Where("entity = ?", opts.Entity)
	}
	if opts.State != "" {
		query = query.Where("state = ?", opts.State)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}
	query = query.Order("created_at DESC")

	if err := query.Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

// UpdateRun updates an existing run
func (r *RunRepository) UpdateRun(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// UpdateRunState updates the run state, stamping completion time on terminal states
func (r *RunRepository) UpdateRunState(ctx context.Context, id uuid.UUID, state models.RunState, errorMessage string) error {
	updates := map[string]interface{}{
		"state":      state,
		"updated_at": time.Now(),
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	now := time.Now()
	switch state {
	case models.RunRunning:
		updates["started_at"] = &now
	case models.RunCompleted, models.RunAborted, models.RunFailed, models.RunCancelled:
		updates["completed_at"] = &now
	}
	return r.db.WithContext(ctx).
		Model(&models.ImportRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateRunCounters persists the current counters snapshot
func (r *RunRepository) UpdateRunCounters(ctx context.Context, id uuid.UUID, counters models.Counters) error {
	countersJSON := models.JSONB{
		"total":     counters.Total,
		"processed": counters.Processed,
		"imported":  counters.Imported,
		"skipped":   counters.Skipped,
		"errors":    counters.Errors,
	}
	return r.db.WithContext(ctx).
		Model(&models.ImportRun{}).
		Where("id = ?", id).
		Update("counters", countersJSON).Error
}

// UpdateRunReport persists the end-of-run report
func (r *RunRepository) UpdateRunReport(ctx context.Context, id uuid.UUID, report models.JSONB) error {
	return r.db.WithContext(ctx).
		Model(&models.ImportRun{}).
		Where("id = ?", id).
		Update("report", report).Error
}

// GetActiveRuns retrieves pending or running imports for a backend and entity
func (r *RunRepository) GetActiveRuns(ctx context.Context, backendID uuid.UUID, entity models.EntityType) ([]models.ImportRun, error) {
	var runs []models.ImportRun
	err := r.db.WithContext(ctx).
		Where("backend_id = ? AND entity = ? AND state IN ?", backendID, entity, []models.RunState{
			models.RunPending,
			models.RunRunning,
		}).
		Find(&runs).Error
	return runs, err
}

// CreateLog creates a run log entry
func (r *RunRepository) CreateLog(ctx context.Context, log *models.ImportRunLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetRunLogs retrieves logs for an import run
func (r *RunRepository) GetRunLogs(ctx context.Context, runID uuid.UUID, opts LogListOptions) ([]models.ImportRunLog, error) {
	var logs []models.ImportRunLog
	query := r.db.WithContext(ctx).
		Where("run_id = ?", runID)

	if opts.Level != "" {
		query = query.Where("level = ?", opts.Level)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	err := query.Order("created_at ASC").Find(&logs).Error
	return logs, err
}

// RunListOptions contains options for listing import runs
type RunListOptions struct {
	TenantID  string
	BackendID uuid.UUID
	Entity    string
	State     string
	Limit     int
	Offset    int
}

// LogListOptions contains options for listing logs
type LogListOptions struct {
	Level  string
	Limit  int
	Offset int
}
