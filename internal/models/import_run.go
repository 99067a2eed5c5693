package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which PrestaShop collection a run imports
type EntityType string

const (
	EntityCustomers  EntityType = "CUSTOMERS"
	EntityCategories EntityType = "CATEGORIES"
	EntityProducts   EntityType = "PRODUCTS"
	EntityGroups     EntityType = "GROUPS"
)

// RunState represents the lifecycle state of an import run
type RunState string

const (
	RunPending   RunState = "PENDING"
	RunRunning   RunState = "RUNNING"
	RunCompleted RunState = "COMPLETED"
	RunAborted   RunState = "ABORTED"
	RunFailed    RunState = "FAILED"
	RunCancelled RunState = "CANCELLED"
)

// Counters tracks item-level outcomes of a run. Every processed item lands
// in exactly one of imported/skipped/errors.
type Counters struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ImportRun represents a single batch import of one entity type from one backend
type ImportRun struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  string     `gorm:"type:varchar(255);not null;index:idx_import_runs_tenant" json:"tenantId"`
	BackendID uuid.UUID  `gorm:"type:uuid;not null;index:idx_import_runs_backend" json:"backendId"`
	Entity    EntityType `gorm:"type:varchar(50);not null" json:"entity"`
	State     RunState   `gorm:"type:varchar(50);not null;default:'PENDING';index:idx_import_runs_state" json:"state"`

	Counters JSONB `gorm:"type:jsonb;default:'{}'" json:"counters"`
	Report   JSONB `gorm:"type:jsonb;default:'{}'" json:"report"`

	ErrorMessage string `gorm:"type:text" json:"errorMessage,omitempty"`
	TriggeredBy  string `gorm:"type:varchar(255)" json:"triggeredBy,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Backend *PrestashopBackend `gorm:"foreignKey:BackendID" json:"backend,omitempty"`
	Logs    []ImportRunLog     `gorm:"foreignKey:RunID" json:"logs,omitempty"`
}

// TableName specifies the table name for ImportRun
func (ImportRun) TableName() string {
	return "import_runs"
}

// GetCounters converts the JSONB counters to a Counters struct
func (r *ImportRun) GetCounters() Counters {
	var c Counters
	if r.Counters == nil {
		return c
	}
	if v, ok := r.Counters["total"].(float64); ok {
		c.Total = int(v)
	}
	if v, ok := r.Counters["processed"].(float64); ok {
		c.Processed = int(v)
	}
	if v, ok := r.Counters["imported"].(float64); ok {
		c.Imported = int(v)
	}
	if v, ok := r.Counters["skipped"].(float64); ok {
		c.Skipped = int(v)
	}
	if v, ok := r.Counters["errors"].(float64); ok {
		c.Errors = int(v)
	}
	return c
}

// SetCounters converts a Counters struct to JSONB
func (r *ImportRun) SetCounters(c Counters) {
	r.Counters = JSONB{
		"total":     c.Total,
		"processed": c.Processed,
		"imported":  c.Imported,
		"skipped":   c.Skipped,
		"errors":    c.Errors,
	}
}

// IsTerminal reports whether the run reached a final state
func (r *ImportRun) IsTerminal() bool {
	switch r.State {
	case RunCompleted, RunAborted, RunFailed, RunCancelled:
		return true
	}
	return false
}

// ImportRunLog is a single structured log line attached to a run
type ImportRunLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RunID     uuid.UUID `gorm:"type:uuid;not null;index:idx_import_run_logs_run" json:"runId"`
	Level     string    `gorm:"type:varchar(20);not null" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Data      JSONB     `gorm:"type:jsonb;default:'{}'" json:"data,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for ImportRunLog
func (ImportRunLog) TableName() string {
	return "import_run_logs"
}
