package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prestashop-importer-service/internal/models"
)

// ProductRepositoryInterface defines product persistence operations
type ProductRepositoryInterface interface {
	Create(ctx context.Context, product *models.Product) error
	GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error)
	GetByName(ctx context.Context, tenantID, name string) (*models.Product, error)
	CreateImage(ctx context.Context, image *models.ProductImage) error
	UpsertStock(ctx context.Context, productID uuid.UUID, quantity float64) error
}

// ProductRepository handles database operations for products, images and stock
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByPrestashopID finds a product by its source cross-reference
func (r *ProductRepository) GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND prestashop_id = ?", tenantID, prestashopID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBySKU finds a product by SKU
func (r *ProductRepository) GetBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByName finds a product by exact name
func (r *ProductRepository) GetByName(ctx context.Context, tenantID, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateImage stores a fetched product image
func (r *ProductRepository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// UpsertStock sets the stock level for a product, creating the row on first
// import and overwriting the quantity on re-import.
func (r *ProductRepository) UpsertStock(ctx context.Context, productID uuid.UUID, quantity float64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()}),
		}).
		Create(&models.StockLevel{ProductID: productID, Quantity: quantity}).Error
}
