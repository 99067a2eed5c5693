package models

import (
	"time"

	"github.com/google/uuid"
)

// AddressType distinguishes a partner's child address records
type AddressType string

const (
	AddressContact  AddressType = "contact"
	AddressInvoice  AddressType = "invoice"
	AddressDelivery AddressType = "delivery"
)

// ProductType is the local product classification
type ProductType string

const (
	ProductGoods   ProductType = "goods"
	ProductService ProductType = "service"
)

// Partner represents an imported customer, or one of its addresses when
// ParentID is set. Customers are deduplicated by email; addresses by
// street+zip+city under the same parent.
type Partner struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string     `gorm:"type:varchar(255);not null;index:idx_partners_tenant" json:"tenantId"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_partners_parent" json:"parentId,omitempty"`

	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);index:idx_partners_email" json:"email,omitempty"`
	Phone string `gorm:"type:varchar(50)" json:"phone,omitempty"`

	Street  string `gorm:"type:varchar(255)" json:"street,omitempty"`
	Street2 string `gorm:"type:varchar(255)" json:"street2,omitempty"`
	Zip     string `gorm:"type:varchar(50)" json:"zip,omitempty"`
	City    string `gorm:"type:varchar(255)" json:"city,omitempty"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty"`

	AddressType AddressType `gorm:"type:varchar(20);default:'contact'" json:"addressType"`
	IsCompany   bool        `gorm:"default:false" json:"isCompany"`
	Active      bool        `gorm:"default:true" json:"active"`

	// Provenance
	Comment      string `gorm:"type:text" json:"comment,omitempty"`
	PrestashopID string `gorm:"type:varchar(50);index:idx_partners_ps_id" json:"prestashopId,omitempty"`
	BackendRef   string `gorm:"type:varchar(255)" json:"backendRef,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Children []Partner `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// TableName specifies the table name for Partner
func (Partner) TableName() string {
	return "partners"
}

// ProductCategory is a node in the local category tree. PrestashopID is the
// cross-reference back to the source category.
type ProductCategory struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string     `gorm:"type:varchar(255);not null;index:idx_product_categories_tenant" json:"tenantId"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_product_categories_parent" json:"parentId,omitempty"`

	Name         string `gorm:"type:varchar(255);not null;index:idx_product_categories_name" json:"name"`
	PrestashopID string `gorm:"type:varchar(50);index:idx_product_categories_ps_id" json:"prestashopId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for ProductCategory
func (ProductCategory) TableName() string {
	return "product_categories"
}

// Product is an imported catalog item
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_products_tenant" json:"tenantId"`

	Name          string  `gorm:"type:varchar(500);not null;index:idx_products_name" json:"name"`
	SKU           string  `gorm:"type:varchar(100);index:idx_products_sku" json:"sku,omitempty"`
	Barcode       string  `gorm:"type:varchar(100)" json:"barcode,omitempty"`
	ListPrice     float64 `gorm:"type:decimal(12,4);default:0" json:"listPrice"`
	StandardPrice float64 `gorm:"type:decimal(12,4);default:0" json:"standardPrice"`
	Weight        float64 `gorm:"type:decimal(12,4);default:0" json:"weight"`
	Description   string  `gorm:"type:text" json:"description,omitempty"`

	Type   ProductType `gorm:"type:varchar(20);not null;default:'goods'" json:"type"`
	Active bool        `gorm:"default:true" json:"active"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index:idx_products_category" json:"categoryId,omitempty"`

	// Provenance
	Comment      string `gorm:"type:text" json:"comment,omitempty"`
	PrestashopID string `gorm:"type:varchar(50);index:idx_products_ps_id" json:"prestashopId,omitempty"`
	BackendRef   string `gorm:"type:varchar(255)" json:"backendRef,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Images []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// ProductImage stores fetched image payloads. Position 0 is the primary image.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_product_images_product" json:"productId"`
	Position  int       `gorm:"not null;default:0" json:"position"`

	Data        []byte `gorm:"type:bytea" json:"-"`
	ContentType string `gorm:"type:varchar(100)" json:"contentType,omitempty"`

	PrestashopImageID string `gorm:"type:varchar(50)" json:"prestashopImageId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for ProductImage
func (ProductImage) TableName() string {
	return "product_images"
}

// StockLevel holds the on-hand quantity for a product
type StockLevel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_product" json:"productId"`
	Quantity  float64   `gorm:"type:decimal(12,4);not null;default:0" json:"quantity"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for StockLevel
func (StockLevel) TableName() string {
	return "stock_levels"
}

// Pricelist maps an imported customer group. Group discounts become a
// percentage rule on the list.
type Pricelist struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_pricelists_tenant" json:"tenantId"`

	Name     string `gorm:"type:varchar(255);not null;index:idx_pricelists_name" json:"name"`
	Currency string `gorm:"type:varchar(10);default:'EUR'" json:"currency"`
	Active   bool   `gorm:"default:true" json:"active"`

	PrestashopGroupID string `gorm:"type:varchar(50);index:idx_pricelists_ps_group" json:"prestashopGroupId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Rules []PricelistRule `gorm:"foreignKey:PricelistID" json:"rules,omitempty"`
}

// TableName specifies the table name for Pricelist
func (Pricelist) TableName() string {
	return "pricelists"
}

// PricelistRule is a single pricing rule. DiscountPercent applies a flat
// percentage off the list price.
type PricelistRule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PricelistID uuid.UUID `gorm:"type:uuid;not null;index:idx_pricelist_rules_pricelist" json:"pricelistId"`

	DiscountPercent float64 `gorm:"type:decimal(8,4);not null;default:0" json:"discountPercent"`
	AppliedOn       string  `gorm:"type:varchar(50);default:'all'" json:"appliedOn"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for PricelistRule
func (PricelistRule) TableName() string {
	return "pricelist_rules"
}
