package importer

import (
	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
)

// Capabilities reports which optional parts of the target schema exist.
// Evaluated once per run; importers consult it instead of probing the
// database per item.
type Capabilities interface {
	HasModel(table string) bool
	HasField(table, column string) bool
}

// SchemaCapabilities inspects the live schema through gorm's migrator and
// memoizes every answer.
type SchemaCapabilities struct {
	db      *gorm.DB
	tables  map[string]bool
	columns map[string]bool
}

// DetectCapabilities probes the target schema once
func DetectCapabilities(db *gorm.DB) *SchemaCapabilities {
	caps := &SchemaCapabilities{
		db:      db,
		tables:  make(map[string]bool),
		columns: make(map[string]bool),
	}
	migrator := db.Migrator()
	for _, table := range []string{
		models.ProductImage{}.TableName(),
		models.StockLevel{}.TableName(),
		models.Pricelist{}.TableName(),
		models.PricelistRule{}.TableName(),
	} {
		caps.tables[table] = migrator.HasTable(table)
	}
	return caps
}

// HasModel reports whether the table exists in the target schema
func (c *SchemaCapabilities) HasModel(table string) bool {
	if known, ok := c.tables[table]; ok {
		return known
	}
	exists := c.db.Migrator().HasTable(table)
	c.tables[table] = exists
	return exists
}

// HasField reports whether the column exists on the table
func (c *SchemaCapabilities) HasField(table, column string) bool {
	key := table + "." + column
	if known, ok := c.columns[key]; ok {
		return known
	}
	exists := c.db.Migrator().HasColumn(table, column)
	c.columns[key] = exists
	return exists
}

// StaticCapabilities is a fixed capability set, used where no live schema is
// available.
type StaticCapabilities struct {
	Tables  map[string]bool
	Columns map[string]bool
}

func (c StaticCapabilities) HasModel(table string) bool {
	return c.Tables[table]
}

func (c StaticCapabilities) HasField(table, column string) bool {
	return c.Columns[table+"."+column]
}

// FullCapabilities returns a static set with every optional model present
func FullCapabilities() StaticCapabilities {
	return StaticCapabilities{
		Tables: map[string]bool{
			models.ProductImage{}.TableName():  true,
			models.StockLevel{}.TableName():    true,
			models.Pricelist{}.TableName():     true,
			models.PricelistRule{}.TableName(): true,
		},
	}
}
