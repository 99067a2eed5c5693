package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// BackendRepositoryInterface defines backend persistence operations
type BackendRepositoryInterface interface {
	Create(ctx context.Context, backend *models.PrestashopBackend) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PrestashopBackend, error)
	List(ctx context.Context, opts BackendListOptions) ([]models.PrestashopBackend, int64, error)
	Update(ctx context.Context, backend *models.PrestashopBackend) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BackendStatus, lastError string) error
	MarkSynced(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BackendRepository handles database operations for PrestaShop backends
type BackendRepository struct {
	db *gorm.DB
}

// NewBackendRepository creates a new backend repository
func NewBackendRepository(db *gorm.DB) *BackendRepository {
	return &BackendRepository{db: db}
}

// Create creates a new backend
func (r *BackendRepository) Create(ctx context.Context, backend *models.PrestashopBackend) error {
	return r.db.WithContext(ctx).Create(backend).Error
}

// GetByID retrieves a backend by ID
func (r *BackendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PrestashopBackend, error) {
	var backend models.PrestashopBackend
	err := r.db.WithContext(ctx).First(&backend, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &backend, nil
}

// List retrieves backends with pagination and filtering
func (r *BackendRepository) List(ctx context.Context, opts BackendListOptions) ([]models.PrestashopBackend, int64, error) {
	var backends []models.PrestashopBackend
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PrestashopBackend{})

	if opts.TenantID != "" {
		query = query.Where("tenant_id = ?", opts.TenantID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.EnabledOnly {
		query = query.Where("is_enabled = ?", true)
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

	if err := query.Find(&backends).Error; err != nil {
		return nil, 0, err
	}

	return backends, total, nil
}

// Update updates an existing backend
func (r *BackendRepository) Update(ctx context.Context, backend *models.PrestashopBackend) error {
	return r.db.WithContext(ctx).Save(backend).Error
}

// UpdateStatus updates the connection status after a probe or run
func (r *BackendRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BackendStatus, lastError string) error {
	updates := map[string]interface{}{
		"status":     status,
		"last_error": lastError,
		"updated_at": time.Now(),
	}
	if status == models.BackendConnected {
		updates["error_count"] = 0
	} else if status == models.BackendError {
		updates["error_count"] = gorm.Expr("error_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&models.PrestashopBackend{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkSynced stamps the last successful import time
func (r *BackendRepository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PrestashopBackend{}).
		Where("id = ?", id).
		Update("last_sync_at", time.Now()).Error
}

// Delete removes a backend
func (r *BackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PrestashopBackend{}, "id = ?", id).Error
}

// BackendListOptions contains options for listing backends
type BackendListOptions struct {
	TenantID    string
	Status      string
	EnabledOnly bool
	Limit       int
	Offset      int
}
