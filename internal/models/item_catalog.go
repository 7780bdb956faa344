package models

import "github.com/shopspring/decimal"

// ItemCatalog is a master record describing a kind of item and who sells it
type ItemCatalog struct {
	Base
	Name                 string   `gorm:"not null;index" json:"name"`
	Description          string   `json:"description,omitempty"`
	Dimensions           string   `json:"dimensions,omitempty"`
	Weight               *float64 `json:"weight,omitempty"`
	StorageConditions    string   `json:"storageConditions,omitempty"`
	HandlingInstructions string   `json:"handlingInstructions,omitempty"`
	MinimumStockLevel    int      `gorm:"default:0" json:"minimumStockLevel"`
	ReorderPoint         int      `gorm:"default:0" json:"reorderPoint"`
	Status               string   `gorm:"type:varchar(16);not null;default:'ACTIVE';index" json:"status"`
	CategoryID           *string  `gorm:"type:varchar(36);index" json:"categoryId"`

	// Relations
	Category  *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Suppliers []SupplierItem `gorm:"foreignKey:ItemCatalogID" json:"suppliers,omitempty"`
}

// TableName specifies the table name for ItemCatalog model
func (ItemCatalog) TableName() string {
	return "item_catalogs"
}

// SupplierItem is one supplier's offer for a catalog entry
type SupplierItem struct {
	Base
	ItemCatalogID   string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_catalog_supplier" json:"itemCatalogId"`
	SupplierID      string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_catalog_supplier" json:"supplierId"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	LeadTime        *int            `json:"leadTime,omitempty"`
	MinimumOrderQty int             `gorm:"default:1" json:"minimumOrderQty"`
	PackSize        int             `gorm:"default:1" json:"packSize"`
	IsPreferred     bool            `gorm:"default:false" json:"isPreferred"`
	SupplierSKU     string          `json:"supplierSku,omitempty"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for SupplierItem model
func (SupplierItem) TableName() string {
	return "supplier_items"
}
