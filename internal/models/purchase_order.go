package models

import "github.com/shopspring/decimal"

// POStatus is the lifecycle state of a purchase order
type POStatus string

const (
	POPending   POStatus = "PENDING"
	POApproved  POStatus = "APPROVED"
	POReceived  POStatus = "RECEIVED"
	POCancelled POStatus = "CANCELLED"
)

// Valid reports whether s is a known purchase order status
func (s POStatus) Valid() bool {
	switch s {
	case POPending, POApproved, POReceived, POCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is CANCELLED or RECEIVED
func (s POStatus) Terminal() bool {
	return s == POCancelled || s == POReceived
}

// PurchaseOrder is an order placed with a supplier.
// TotalAmount is fixed when the order is created.
type PurchaseOrder struct {
	Base
	SupplierID  string          `gorm:"type:varchar(36);not null;index" json:"supplierId"`
	UserID      string          `gorm:"type:varchar(36);not null" json:"userId"`
	Status      POStatus        `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Notes       string          `json:"notes,omitempty"`

	// Relations
	Supplier  *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedBy *User               `gorm:"foreignKey:UserID" json:"createdBy,omitempty"`
	Lines     []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID" json:"items"`
	Receipts  []GoodsReceipt      `gorm:"foreignKey:PurchaseOrderID" json:"receipts,omitempty"`
}

// TableName specifies the table name for PurchaseOrder model
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLine is one ordered item with its price
type PurchaseOrderLine struct {
	Base
	PurchaseOrderID string          `gorm:"type:varchar(36);not null;index" json:"purchaseOrderId"`
	ItemID          string          `gorm:"type:varchar(36);not null;index" json:"itemId"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName specifies the table name for PurchaseOrderLine model
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_items"
}
