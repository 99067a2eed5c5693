package repository

import (
	"context"

	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// CategoryRepositoryInterface defines category persistence operations
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.ProductCategory) error
	GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.ProductCategory, error)
	GetByName(ctx context.Context, tenantID, name string) (*models.ProductCategory, error)
	Update(ctx context.Context, category *models.ProductCategory) error
}

// CategoryRepository handles database operations for product categories
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a category
func (r *CategoryRepository) Create(ctx context.Context, category *models.ProductCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByPrestashopID finds a category by its source cross-reference
func (r *CategoryRepository) GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.ProductCategory, error) {
	var category models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND prestashop_id = ?", tenantID, prestashopID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName finds a category by name. Used as a fallback when no
// cross-reference match exists.
func (r *CategoryRepository) GetByName(ctx context.Context, tenantID, name string) (*models.ProductCategory, error) {
	var category models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update updates an existing category
func (r *CategoryRepository) Update(ctx context.Context, category *models.ProductCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}
