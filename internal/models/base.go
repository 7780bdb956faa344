package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identity and timestamps shared by every table.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Base struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model in dependency order for schema migration
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Supplier{},
		&SupplierContact{},
		&SupplierDocument{},
		&SupplierQualification{},
		&SupplierCommunication{},
		&ItemCatalog{},
		&SupplierItem{},
		&Item{},
		&StockHistory{},
		&QRCode{},
		&Order{},
		&OrderLine{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&GoodsReceipt{},
		&GoodsReceiptLine{},
		&Request{},
	}
}
