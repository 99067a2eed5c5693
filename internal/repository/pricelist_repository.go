package repository

import (
	"context"

	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// PricelistRepositoryInterface defines pricelist persistence operations
type PricelistRepositoryInterface interface {
	Create(ctx context.Context, pricelist *models.Pricelist) error
	GetByName(ctx context.Context, tenantID, name string) (*models.Pricelist, error)
	GetByGroupID(ctx context.Context, tenantID, groupID string) (*models.Pricelist, error)
	CreateRule(ctx context.Context, rule *models.PricelistRule) error
}

// PricelistRepository handles database operations for pricelists
type PricelistRepository struct {
	db *gorm.DB
}

// NewPricelistRepository creates a new pricelist repository
func NewPricelistRepository(db *gorm.DB) *PricelistRepository {
	return &PricelistRepository{db: db}
}

// Create creates a pricelist
func (r *PricelistRepository) Create(ctx context.Context, pricelist *models.Pricelist) error {
	return r.db.WithContext(ctx).Create(pricelist).Error
}

// GetByName finds a pricelist by its name natural key
func (r *PricelistRepository) GetByName(ctx context.Context, tenantID, name string) (*models.Pricelist, error) {
	var pricelist models.Pricelist
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&pricelist).Error
	if err != nil {
		return nil, err
	}
	return &pricelist, nil
}

// GetByGroupID finds a pricelist by its source customer-group cross-reference
func (r *PricelistRepository) GetByGroupID(ctx context.Context, tenantID, groupID string) (*models.Pricelist, error) {
	var pricelist models.Pricelist
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND prestashop_group_id = ?", tenantID, groupID).
		First(&pricelist).Error
	if err != nil {
		return nil, err
	}
	return &pricelist, nil
}

// CreateRule attaches a pricing rule to a pricelist
func (r *PricelistRepository) CreateRule(ctx context.Context, rule *models.PricelistRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}
