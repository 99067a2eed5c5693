package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackendStatus represents the status of a PrestaShop backend connection
type BackendStatus string

const (
	BackendPending      BackendStatus = "PENDING"
	BackendConnected    BackendStatus = "CONNECTED"
	BackendDisconnected BackendStatus = "DISCONNECTED"
	BackendError        BackendStatus = "ERROR"
)

// JSONB custom type for PostgreSQL JSONB
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(j))
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = JSONB(m)
	return nil
}

// PrestashopBackend represents a configured PrestaShop 1.6 store connection
type PrestashopBackend struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_ps_backends_tenant" json:"tenantId"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`

	// Webservice access
	StoreURL string `gorm:"type:varchar(500);not null" json:"storeUrl"`
	APIKey   string `gorm:"type:varchar(255);not null" json:"-"`

	// Language id used to pick multilingual field values (PrestaShop language id)
	LanguageID string `gorm:"type:varchar(10);default:'1'" json:"languageId"`

	// Company the imported records belong to
	CompanyRef string `gorm:"type:varchar(255)" json:"companyRef,omitempty"`

	Status    BackendStatus `gorm:"type:varchar(50);not null;default:'PENDING';index:idx_ps_backends_status" json:"status"`
	IsEnabled bool          `gorm:"default:true" json:"isEnabled"`

	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `gorm:"type:text" json:"lastError,omitempty"`
	ErrorCount int        `gorm:"default:0" json:"errorCount"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
	CreatedBy string    `gorm:"type:varchar(255)" json:"createdBy,omitempty"`

	// Relationships
	Runs []ImportRun `gorm:"foreignKey:BackendID" json:"runs,omitempty"`
}

// TableName specifies the table name for PrestashopBackend
func (PrestashopBackend) TableName() string {
	return "prestashop_backends"
}

// APIBaseURL returns the store URL normalized to end with the /api path
// segment exactly once.
func (b *PrestashopBackend) APIBaseURL() string {
	base := strings.TrimRight(b.StoreURL, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}

// Validate checks that the backend carries everything a run needs.
func (b *PrestashopBackend) Validate() error {
	if strings.TrimSpace(b.StoreURL) == "" {
		return fmt.Errorf("store URL is required")
	}
	if strings.TrimSpace(b.APIKey) == "" {
		return fmt.Errorf("webservice key is required")
	}
	return nil
}
