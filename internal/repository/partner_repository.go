package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// PartnerRepositoryInterface defines partner persistence operations
type PartnerRepositoryInterface interface {
	Create(ctx context.Context, partner *models.Partner) error
	GetByEmail(ctx context.Context, tenantID, email string) (*models.Partner, error)
	FindChildAddress(ctx context.Context, parentID uuid.UUID, street, zip, city string) (*models.Partner, error)
	GetChildrenByTypes(ctx context.Context, parentID uuid.UUID, types []models.AddressType) ([]models.Partner, error)
}

// PartnerRepository handles database operations for partners and addresses
type PartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create creates a partner or address record
func (r *PartnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

// GetByEmail finds a top-level partner by email. Email is the customer
// natural key; addresses never carry one here.
func (r *PartnerRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ? AND parent_id IS NULL", tenantID, email).
		First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// FindChildAddress finds an address under a parent by its street+zip+city
// natural key.
func (r *PartnerRepository) FindChildAddress(ctx context.Context, parentID uuid.UUID, street, zip, city string) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND street = ? AND zip = ? AND city = ?", parentID, street, zip, city).
		First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetChildrenByTypes retrieves a partner's child addresses of the given types
func (r *PartnerRepository) GetChildrenByTypes(ctx context.Context, parentID uuid.UUID, types []models.AddressType) ([]models.Partner, error) {
	var children []models.Partner
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND address_type IN ?", parentID, types).
		Find(&children).Error
	return children, err
}
